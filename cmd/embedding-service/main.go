// Command embedding-service hosts the embedding model over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/app"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// run starts the server; replaced in tests.
var run = app.RunEmbeddingServer

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "embedding-service",
		Short: "Host the embedding model over HTTP",
		Long: `Loads the configured embedding model and serves /health, /model-info,
/embed, /embed-batch and /embed-chunks until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger.SetVerbose(verbose || cfg.Verbose)
			logger.SetTimestamps(true)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.hybridrag/config.toml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func main() {
	_ = godotenv.Load() // a missing .env is fine

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
