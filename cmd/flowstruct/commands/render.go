package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/l3aro/flowstruct/pkg/render"
	"github.com/spf13/cobra"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Draw the flow diagram as SVG, Mermaid or text",
	Long: `Renders the flow diagram of a snippet. SVG output is scaled by --zoom
(clamped to 0.5..2). With -o pointing at a directory the diagram is saved as
code_flow_chart_<timestamp> with the format's extension.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(name)
		if err != nil {
			return err
		}

		zoom := cfg.Zoom
		if cmd.Flags().Changed("zoom") {
			zoom, _ = cmd.Flags().GetFloat64("zoom")
		}

		in, err := readInput(cmd, firstArg(args), cfg.MaxInputBytes)
		if err != nil {
			return err
		}
		lang, err := resolveLanguage(cmd, in)
		if err != nil {
			return err
		}

		result := parseInput(in, lang)
		data, err := render.Render(format, result, render.Options{Zoom: render.ClampZoom(zoom), Pretty: true})
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		path := outputPath(out, format, time.Now())
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing diagram: %w", err)
		}
		logger.Info("diagram written", "path", path, "format", format, "nodes", len(result.Nodes))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringP("format", "f", string(render.FormatSVG), "Output format: svg, mermaid, text or json")
	renderCmd.Flags().Float64P("zoom", "z", render.DefaultZoom, "SVG zoom level (default from config)")
	renderCmd.Flags().StringP("language", "l", "", "Force the language instead of detecting it")
	renderCmd.Flags().StringP("output", "o", "", "Output file or directory (default stdout)")
}
