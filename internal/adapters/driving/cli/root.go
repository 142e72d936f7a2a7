// Package cli implements the hybridrag command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipServices marks commands that run without the pipeline.
const skipServices = "skip-services"

var (
	configPath string
	verbose    bool
)

// Services the commands drive. Populated by SetServices, or by the
// Bootstrap passed to Execute on first use.
var (
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService
	embeddingService driving.EmbeddingService
	embeddingClient  driven.EmbeddingClient
	metadataStore    driven.MetadataStore
	serverConfig     httpapi.Config
)

// Services bundles the components a command may need.
type Services struct {
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService

	// Embedding is the in-process model host used by serve.
	Embedding driving.EmbeddingService

	// Client reaches the embedding service used by ingestion and retrieval.
	Client   driven.EmbeddingClient
	Metadata driven.MetadataStore

	Server httpapi.Config
}

// Bootstrap builds the services from the config file at path (the default
// location when empty). The returned function releases them.
type Bootstrap func(ctx context.Context, path string) (*Services, func() error, error)

var (
	bootstrap Bootstrap
	release   func() error
)

var rootCmd = &cobra.Command{
	Use:   "hybridrag",
	Short: "Hybrid lexical and vector retrieval over document chunks",
	Long: `hybridrag ingests chunked documents, embeds them with a shared embedding
service, and answers queries by blending BM25 relevance with vector similarity.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.hybridrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the services directly. Execute then skips bootstrapping.
func SetServices(s Services) {
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	embeddingService = s.Embedding
	embeddingClient = s.Client
	metadataStore = s.Metadata
	serverConfig = s.Server
}

// Execute runs the command line. b builds the services the first time a
// command needs them; it may be nil when SetServices was called.
func Execute(ctx context.Context, b Bootstrap) error {
	bootstrap = b
	err := rootCmd.ExecuteContext(ctx)
	if release != nil {
		err = errors.Join(err, release())
		release = nil
	}
	return err
}

func prepare(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[skipServices] != "" || cmd.Name() == "help" || retrievalService != nil || bootstrap == nil {
		return nil
	}

	services, closeFn, err := bootstrap(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	SetServices(*services)
	release = closeFn
	return nil
}
