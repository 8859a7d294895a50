package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/l3aro/flowstruct/internal/config"
	"github.com/l3aro/flowstruct/internal/log"
	"github.com/l3aro/flowstruct/internal/scanner"
	"github.com/l3aro/flowstruct/pkg/cache"
	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/l3aro/flowstruct/pkg/render"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ParseOutput is one parsed input in batch JSON output.
type ParseOutput struct {
	Input  string           `json:"input"`
	Result flow.ParseResult `json:"result"`
	Stats  flow.Stats       `json:"stats"`
}

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [paths...|-]",
	Short: "Parse snippets into flow nodes",
	Long: `Parses each input into a chain of flow nodes. Inputs may be files,
directories (scanned for supported source files, honoring .flowignore) or "-"
for stdin. Files with a known extension are parsed with that language's rules;
stdin is auto-detected. Multiple inputs are parsed concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		format, err := outputFormat(cmd, cfg)
		if err != nil {
			return err
		}

		inputs, err := collectInputs(cmd, args, cfg.MaxInputBytes, logger)
		if err != nil {
			return err
		}

		forced, _ := cmd.Flags().GetString("language")
		var lang flow.Language
		if forced != "" {
			if lang, err = flow.ParseLanguage(strings.ToLower(forced)); err != nil {
				return err
			}
		}

		rc := cache.New(cache.Options{MaxSize: cfg.CacheSize})
		if cfg.CachePath != "" {
			if err := cache.LoadFromFile(rc, cfg.CachePath); err != nil {
				logger.Warn("discarding persisted cache", "path", cfg.CachePath, "error", err)
				rc.Clear()
			}
		}

		outputs, err := parseAll(cmd.Context(), inputs, lang, rc)
		if err != nil {
			return err
		}
		logger.Debug("parsed inputs", "count", len(outputs), "cache_hits", rc.Stats().HitCount)

		if cfg.CachePath != "" {
			if err := cache.PersistToFile(rc, cfg.CachePath); err != nil {
				logger.Warn("failed to persist cache", "path", cfg.CachePath, "error", err)
			}
		}

		return writeParseOutputs(cmd.OutOrStdout(), outputs, format)
	},
}

func init() {
	parseCmd.Flags().StringP("language", "l", "", "Force the language instead of detecting it (python, javascript, java, ruby, cpp)")
	parseCmd.Flags().BoolP("json", "j", false, "Output as JSON (same as --format json)")
	parseCmd.Flags().StringP("format", "f", "", "Output format: text, json, mermaid or svg (default from config)")
}

// outputFormat resolves --json and --format against the configured default.
func outputFormat(cmd *cobra.Command, cfg *config.Config) (render.Format, error) {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return render.FormatJSON, nil
	}
	name, _ := cmd.Flags().GetString("format")
	if name == "" {
		name = cfg.OutputFormat
	}
	return render.ParseFormat(name)
}

// collectInputs expands args into snippets. Directories are scanned; files
// over the size limit found by a scan are skipped, while an explicit file
// over the limit is an error.
func collectInputs(cmd *cobra.Command, args []string, limit int64, logger log.Logger) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	var inputs []input
	for _, arg := range args {
		if arg != "-" {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("stat path: %w", err)
			}
			if info.IsDir() {
				opts := scanner.DefaultOptions()
				opts.MaxFileSize = limit
				files, err := scanner.New(opts).Scan(arg)
				if err != nil {
					return nil, fmt.Errorf("scanning directory: %w", err)
				}
				logger.Debug("scanned directory", "path", arg, "files", len(files))
				for _, f := range files {
					data, err := os.ReadFile(f.FullPath)
					if err != nil {
						logger.Warn("skipping unreadable file", "path", f.FullPath, "error", err)
						continue
					}
					inputs = append(inputs, input{Name: f.FullPath, Code: string(data), Language: f.Language})
				}
				continue
			}
		}

		in, err := readInput(cmd, arg, limit)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// parseAll parses every input concurrently through the shared cache. The
// output order matches the input order.
func parseAll(ctx context.Context, inputs []input, forced flow.Language, rc *cache.ResultCache) ([]ParseOutput, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	outputs := make([]ParseOutput, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lang := forced
			if lang == "" {
				lang = in.Language
			}
			result, _ := rc.GetOrParse(lang, in.Code)
			outputs[i] = ParseOutput{Input: in.Name, Result: result, Stats: result.Stats()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func writeParseOutputs(w io.Writer, outputs []ParseOutput, format render.Format) error {
	if format == render.FormatJSON && len(outputs) != 1 {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for i, out := range outputs {
		if len(outputs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", out.Input)
		}
		data, err := render.Render(format, out.Result, render.Options{Pretty: true})
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
	return nil
}
