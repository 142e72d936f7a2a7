// Package app assembles the pipeline from configuration: the embedding
// model and service, the embedding client, the stores, and the ingestion
// and retrieval services that sit on top of them.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/embedding/httpclient"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/model/hashing"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/model/ollama"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/model/openai"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/hybridrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/hybridrag/internal/config"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/services"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// App holds the assembled components. Close releases everything it opened.
type App struct {
	Config config.Config

	// Embedding hosts the model. In remote mode it is built but not loaded;
	// only the serve command loads it.
	Embedding *services.EmbeddingService

	// Client is shared by ingestion and retrieval.
	Client driven.EmbeddingClient

	Metadata driven.MetadataStore
	Vectors  driven.VectorIndex

	Ingestion *services.IngestionService
	Retrieval *services.RetrievalService

	closers []func() error
}

// LoadConfig reads the config file at path (the default location when
// empty) and applies environment overrides.
func LoadConfig(path string) (config.Config, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("opening config: %w", err)
	}
	cfg, err := config.Load(store)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config from %s: %w", store.Path(), err)
	}
	return cfg, nil
}

// New builds every component described by cfg. In local mode the model
// is loaded before New returns.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	logger.Debug("Assembled pipeline: mode=%s metadata=%s vector=%s",
		cfg.Embedding.Mode, cfg.Storage.Metadata, cfg.Storage.Vector)
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	embedding, err := NewEmbeddingService(cfg.Model)
	if err != nil {
		return err
	}
	a.Embedding = embedding
	a.closers = append(a.closers, embedding.Close)

	switch cfg.Embedding.Mode {
	case config.ModeLocal:
		if err := embedding.Load(ctx); err != nil {
			return err
		}
		a.Client = local.New(embedding)
	default:
		a.Client = httpclient.New(ClientConfig(cfg))
	}
	a.closers = append(a.closers, a.Client.Close)

	if err := a.openStores(ctx); err != nil {
		return err
	}

	a.Ingestion = services.NewIngestionService(a.Client, a.Metadata, a.Vectors)
	a.Retrieval = services.NewRetrievalService(a.Client, a.Vectors, cfg.QueryOptions())
	a.Retrieval.SetMetadataStore(a.Metadata)
	return nil
}

// openStores opens the metadata store and vector index. When both use
// SQLite they share one database file.
func (a *App) openStores(ctx context.Context) error {
	st := a.Config.Storage

	var sqliteStore *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if sqliteStore != nil {
			return sqliteStore, nil
		}
		s, err := sqlite.NewStore(st.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("SQLite store at %s", s.Path())
		a.closers = append(a.closers, s.Close)
		sqliteStore = s
		return s, nil
	}

	switch st.Metadata {
	case config.DriverMemory:
		a.Metadata = memory.NewMetadataStore()
	case config.DriverPostgres:
		pg, err := postgres.NewMetadataStore(ctx, st.PostgresURL)
		if err != nil {
			return fmt.Errorf("opening postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.Metadata = pg
	default:
		s, err := openSQLite()
		if err != nil {
			return err
		}
		a.Metadata = s.MetadataStore()
	}

	switch st.Vector {
	case config.DriverMemory:
		a.Vectors = memory.NewVectorIndex()
	default:
		s, err := openSQLite()
		if err != nil {
			return err
		}
		a.Vectors = s.VectorIndex()
	}
	return nil
}

// Close releases components in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ClientConfig maps the embedding section onto the HTTP client config.
func ClientConfig(cfg config.Config) httpclient.Config {
	return httpclient.Config{
		BaseURL:           cfg.Embedding.URL,
		Timeout:           cfg.Embedding.Timeout,
		HealthTimeout:     cfg.Embedding.HealthTimeout,
		Dimensions:        cfg.Model.Dimensions,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	}
}

// ServerConfig maps the server section onto the HTTP server config.
func ServerConfig(cfg config.Config) httpapi.Config {
	return httpapi.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// NewModel builds the model runtime named by cfg.Provider.
func NewModel(cfg config.ModelConfig) (driven.EmbeddingModel, error) {
	switch cfg.Provider {
	case config.ProviderHashing:
		return hashing.New(hashing.Config{
			Name:           cfg.Name,
			Dimensions:     cfg.Dimensions,
			MaxInputLength: cfg.MaxInputLength,
		}), nil
	case config.ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Name,
			Dimensions:     cfg.Dimensions,
			MaxInputLength: cfg.MaxInputLength,
		}), nil
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:         cfg.APIKey(),
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Name,
			Dimensions:     cfg.Dimensions,
			MaxInputLength: cfg.MaxInputLength,
		})
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}

// NewEmbeddingService wraps the configured model in an embedding service.
// The model is not loaded.
func NewEmbeddingService(cfg config.ModelConfig) (*services.EmbeddingService, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return services.NewEmbeddingService(model, services.EmbeddingOptions{
		Dimensions:  cfg.Dimensions,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
	}), nil
}

// RunEmbeddingServer hosts the configured model over HTTP until ctx is
// cancelled, then shuts down gracefully and releases the model.
func RunEmbeddingServer(ctx context.Context, cfg config.Config) error {
	service, err := NewEmbeddingService(cfg.Model)
	if err != nil {
		return err
	}
	defer service.Close()

	server, err := httpapi.NewServer(service, ServerConfig(cfg))
	if err != nil {
		return err
	}

	return server.Run(ctx)
}
