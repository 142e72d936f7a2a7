package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the embedding service",
	Long: `Hosts the configured embedding model over HTTP.

The model loads in the background; until it is ready /health answers 503
and embedding requests are refused. Stops gracefully on interrupt.

Endpoints:
  GET  /health        readiness
  GET  /model-info    model name, dimensions, device
  POST /embed         {"text": "..."}
  POST /embed-batch   {"texts": ["...", "..."]}
  POST /embed-chunks  {"chunks": [{"text": "...", ...}]}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errors.New("embedding service not configured")
	}

	cfg := serverConfig
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	server, err := httpapi.NewServer(embeddingService, cfg)
	if err != nil {
		return err
	}

	logger.SetTimestamps(true)
	cmd.Printf("Embedding service starting on %s\n", server.Addr())
	return server.Run(cmd.Context())
}
