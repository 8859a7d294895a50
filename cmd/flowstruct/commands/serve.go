package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3aro/flowstruct/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the detect, parse and render endpoints over HTTP:

  GET  /health
  POST /api/detect
  POST /api/parse
  POST /api/render?format=svg&zoom=1.2

The server stops gracefully on SIGINT or SIGTERM and persists its result
cache to cache_path when one is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, logger, version).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
