package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/l3aro/flowstruct/internal/config"
	"github.com/l3aro/flowstruct/pkg/render"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long: `Guides you through setting up flowstruct configuration step by step and
saves it globally (~/.flowstruct/config.yaml) or for the current project
(./.flowstruct/config.yaml).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

// initAnswers holds the values collected by the init form.
type initAnswers struct {
	OutputFormat string
	Zoom         string
	ListenAddr   string
	CachePath    string
	LogLevel     string
	Scope        string
}

func defaultAnswers() initAnswers {
	d := config.DefaultConfig()
	return initAnswers{
		OutputFormat: d.OutputFormat,
		Zoom:         strconv.FormatFloat(d.Zoom, 'f', -1, 64),
		ListenAddr:   d.ListenAddr,
		CachePath:    d.CachePath,
		LogLevel:     d.LogLevel,
		Scope:        "global",
	}
}

// buildConfig turns the form answers into a validated config.
func (a initAnswers) buildConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.OutputFormat = a.OutputFormat
	cfg.ListenAddr = a.ListenAddr
	cfg.CachePath = a.CachePath
	cfg.LogLevel = a.LogLevel

	if a.Zoom != "" {
		zoom, err := strconv.ParseFloat(a.Zoom, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid zoom %q: %w", a.Zoom, err)
		}
		cfg.Zoom = zoom
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPathForScope maps "global" or "project" to a config file path.
func configPathForScope(scope string) (string, error) {
	switch scope {
	case "global":
		return config.GlobalConfigFilePath(), nil
	case "project":
		return config.ProjectConfigFilePath(), nil
	default:
		return "", fmt.Errorf("unknown config scope: %q", scope)
	}
}

func validateZoom(s string) error {
	z, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if z < render.MinZoom || z > render.MaxZoom {
		return fmt.Errorf("must be between %.1f and %.1f", render.MinZoom, render.MaxZoom)
	}
	return nil
}

func runInit(cmd *cobra.Command) error {
	answers := defaultAnswers()

	formatOptions := make([]huh.Option[string], 0, len(render.Formats))
	for _, f := range render.Formats {
		formatOptions = append(formatOptions, huh.NewOption(string(f), string(f)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default output format").
				Description("Used by parse when --format is not given").
				Options(formatOptions...).
				Value(&answers.OutputFormat),
			huh.NewInput().
				Title("Default SVG zoom").
				Placeholder("1").
				Validate(validateZoom).
				Value(&answers.Zoom),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP listen address").
				Placeholder(":8080").
				Value(&answers.ListenAddr),
			huh.NewInput().
				Title("Cache file (optional, press Enter to keep the cache in memory)").
				Placeholder("optional").
				Value(&answers.CachePath),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&answers.LogLevel),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.flowstruct/config.yaml)", "global"),
					huh.NewOption("Project (./.flowstruct/config.yaml)", "project"),
				).
				Value(&answers.Scope),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg, err := answers.buildConfig()
	if err != nil {
		return err
	}
	configPath, err := configPathForScope(answers.Scope)
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		confirm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := confirm.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "\n=== Configuration ===")
	fmt.Fprintf(w, "Config scope:   %s\n", answers.Scope)
	fmt.Fprintf(w, "Config path:    %s\n", configPath)
	fmt.Fprintf(w, "Output format:  %s\n", cfg.OutputFormat)
	fmt.Fprintf(w, "Zoom:           %g\n", cfg.Zoom)
	fmt.Fprintf(w, "Listen address: %s\n", cfg.ListenAddr)
	if cfg.CachePath != "" {
		fmt.Fprintf(w, "Cache file:     %s\n", cfg.CachePath)
	}
	fmt.Fprintf(w, "Log level:      %s\n", cfg.LogLevel)
	return nil
}
