package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/l3aro/flowstruct/internal/config"
	"github.com/l3aro/flowstruct/internal/log"
	"github.com/l3aro/flowstruct/internal/scanner"
	"github.com/l3aro/flowstruct/internal/server"
	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/l3aro/flowstruct/pkg/render"
	"github.com/spf13/cobra"
)

var version = "dev"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "flowstruct",
	Short: "flowstruct - Turn code snippets into flow diagrams",
	Long: `flowstruct guesses the language of a code snippet and turns its significant
lines into a chain of flow nodes.

Commands:
  detect      Guess the language of a snippet
  parse       Parse snippets into flow nodes
  render      Draw the flow diagram as SVG, Mermaid or text
  stats       Show code statistics for a snippet
  serve       Run the HTTP API
  init        Create a config file interactively

Input is read from a file argument, or from stdin when the argument is "-"
or missing.

Use "flowstruct [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// SetVersion records the build version shown by --version and /health.
func SetVersion(v, buildTime string) {
	version = v
	RootCmd.Version = v
	if buildTime != "" {
		RootCmd.Version = fmt.Sprintf("%s (built %s)", v, buildTime)
	}
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.flowstruct/config.yaml and ./.flowstruct/config.yaml)")
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	RootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	RootCmd.SetVersionTemplate(`flowstruct version {{.Version}}
`)
	RootCmd.Version = version

	RootCmd.AddCommand(detectCmd)
	RootCmd.AddCommand(parseCmd)
	RootCmd.AddCommand(renderCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
}

// loadSettings loads the config named by --config, or the layered default
// config, and applies the global logging flags on top.
func loadSettings(cmd *cobra.Command) (*config.Config, *log.DefaultLogger, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if logJSON, _ := cmd.Flags().GetBool("log-json"); logJSON {
		cfg.LogJSON = true
	}

	logger := log.New(log.LoggerConfig{
		Level:      cfg.Level(),
		JSONOutput: cfg.LogJSON,
		Output:     cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}

// input is one snippet read from a file or stdin.
type input struct {
	Name     string
	Code     string
	Language flow.Language // from the file extension; empty for stdin
}

// readInput reads the snippet named by arg. An empty arg or "-" reads stdin.
func readInput(cmd *cobra.Command, arg string, limit int64) (input, error) {
	if arg == "" || arg == "-" {
		code, err := readLimited(cmd.InOrStdin(), limit)
		if err != nil {
			return input{}, fmt.Errorf("reading stdin: %w", err)
		}
		return input{Name: "stdin", Code: code}, nil
	}

	f, err := os.Open(arg)
	if err != nil {
		return input{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	code, err := readLimited(f, limit)
	if err != nil {
		return input{}, fmt.Errorf("reading %s: %w", arg, err)
	}
	lang, _ := scanner.DetectLanguage(arg)
	return input{Name: arg, Code: code, Language: lang}, nil
}

func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: limit is %d bytes", server.ErrInputTooLarge, limit)
	}
	return string(data), nil
}

// firstArg returns args[0] or "" when there are no args.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// resolveLanguage returns the forced language from --language, falling back
// to the language implied by the file extension.
func resolveLanguage(cmd *cobra.Command, in input) (flow.Language, error) {
	name, _ := cmd.Flags().GetString("language")
	if name == "" {
		return in.Language, nil
	}
	return flow.ParseLanguage(strings.ToLower(name))
}

func parseInput(in input, lang flow.Language) flow.ParseResult {
	if lang == "" {
		return flow.Parse(in.Code)
	}
	return flow.ParseAs(in.Code, lang)
}

// ExportName returns the default file name for a diagram exported at t.
func ExportName(t time.Time, format render.Format) string {
	stamp := strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return "code_flow_chart_" + stamp + render.Extension(format)
}

// outputPath resolves -o. A directory gets the default export name inside it.
func outputPath(out string, format render.Format, now time.Time) string {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, ExportName(now, format))
	}
	return out
}
