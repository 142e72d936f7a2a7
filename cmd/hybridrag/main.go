// Command hybridrag ingests documents and answers hybrid retrieval queries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/hybridrag/internal/app"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, bootstrap); err != nil {
		stop()
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, path string) (*cli.Services, func() error, error) {
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return &cli.Services{
		Ingestion: a.Ingestion,
		Retrieval: a.Retrieval,
		Embedding: a.Embedding,
		Client:    a.Client,
		Metadata:  a.Metadata,
		Server:    app.ServerConfig(cfg),
	}, a.Close, nil
}
