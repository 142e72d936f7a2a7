// Package config assembles the typed application configuration from
// defaults, an optional config file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
)

// Embedding client modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Model providers.
const (
	ProviderHashing = "hashing"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// EmbeddingConfig configures how the pipeline reaches the embedding service.
type EmbeddingConfig struct {
	Mode              string
	URL               string
	Timeout           time.Duration
	HealthTimeout     time.Duration
	RequestsPerSecond float64
}

// ModelConfig configures the model runtime hosted by the embedding service.
type ModelConfig struct {
	Provider       string
	Name           string
	Dimensions     int
	MaxInputLength int
	BaseURL        string
	APIKeyEnv      string
	BatchSize      int
	Concurrency    int
}

// APIKey reads the provider API key from the configured environment variable.
func (m ModelConfig) APIKey() string {
	return os.Getenv(m.APIKeyEnv)
}

// ServerConfig configures the embedding service HTTP listener.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	Alpha float64
	TopK  int
}

// StorageConfig selects and locates the stores.
type StorageConfig struct {
	Metadata    string
	Vector      string
	DataDir     string
	PostgresURL string
}

// Config is the complete application configuration.
type Config struct {
	Embedding EmbeddingConfig
	Model     ModelConfig
	Server    ServerConfig
	Retrieval RetrievalConfig
	Storage   StorageConfig
	Verbose   bool
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := ".hybridrag/data"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".hybridrag", "data")
	}

	return Config{
		Embedding: EmbeddingConfig{
			Mode:          ModeRemote,
			URL:           "http://localhost:8001",
			Timeout:       300 * time.Second,
			HealthTimeout: 5 * time.Second,
		},
		Model: ModelConfig{
			Provider:       ProviderHashing,
			Dimensions:     384,
			MaxInputLength: 512,
			APIKeyEnv:      "OPENAI_API_KEY",
			BatchSize:      32,
			Concurrency:    1,
		},
		Server: ServerConfig{
			Addr:         ":8001",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 300 * time.Second,
		},
		Retrieval: RetrievalConfig{
			Alpha: domain.DefaultAlpha,
			TopK:  domain.DefaultTopK,
		},
		Storage: StorageConfig{
			Metadata: DriverSQLite,
			Vector:   DriverSQLite,
			DataDir:  dataDir,
		},
	}
}

// Load builds the configuration: defaults, then values from store (which
// may be nil), then environment overrides. The result is validated.
func Load(store driven.ConfigStore) (Config, error) {
	cfg := Default()
	if store != nil {
		cfg.applyStore(store)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// QueryOptions returns the retrieval defaults as query options.
func (c Config) QueryOptions() domain.QueryOptions {
	return domain.QueryOptions{K: c.Retrieval.TopK, Alpha: c.Retrieval.Alpha}
}

// Validate checks the configuration for values no component can accept.
func (c Config) Validate() error {
	var errs []error

	switch c.Embedding.Mode {
	case ModeRemote, ModeLocal:
	default:
		errs = append(errs, fmt.Errorf("embedding.mode %q: want %s or %s", c.Embedding.Mode, ModeRemote, ModeLocal))
	}
	if c.Embedding.Mode == ModeRemote && c.Embedding.URL == "" {
		errs = append(errs, errors.New("embedding.url is required in remote mode"))
	}
	if c.Embedding.Timeout <= 0 {
		errs = append(errs, errors.New("embedding.timeout_secs must be positive"))
	}
	if c.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("embedding.requests_per_second must not be negative"))
	}

	switch c.Model.Provider {
	case ProviderHashing, ProviderOllama, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("model.provider %q is not supported", c.Model.Provider))
	}
	if c.Model.Dimensions <= 0 {
		errs = append(errs, errors.New("model.dimensions must be positive"))
	}
	if c.Model.BatchSize <= 0 {
		errs = append(errs, errors.New("model.batch_size must be positive"))
	}
	if c.Model.Concurrency <= 0 {
		errs = append(errs, errors.New("model.concurrency must be positive"))
	}

	if c.Retrieval.Alpha < 0 || c.Retrieval.Alpha > 1 {
		errs = append(errs, fmt.Errorf("retrieval.alpha %v must be within [0, 1]", c.Retrieval.Alpha))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval.top_k must be positive"))
	}

	switch c.Storage.Metadata {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, errors.New("storage.postgres_url is required for the postgres metadata store"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.metadata %q is not supported", c.Storage.Metadata))
	}
	switch c.Storage.Vector {
	case DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.vector %q is not supported", c.Storage.Vector))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyStore(s driven.ConfigStore) {
	str := func(key string, dst *string) {
		if v := s.GetString(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if _, ok := s.Get(key); ok {
			*dst = s.GetInt(key)
		}
	}
	float := func(key string, dst *float64) {
		if _, ok := s.Get(key); ok {
			*dst = s.GetFloat(key)
		}
	}
	secs := func(key string, dst *time.Duration) {
		if _, ok := s.Get(key); ok {
			*dst = time.Duration(s.GetFloat(key) * float64(time.Second))
		}
	}

	str("embedding.mode", &c.Embedding.Mode)
	str("embedding.url", &c.Embedding.URL)
	secs("embedding.timeout_secs", &c.Embedding.Timeout)
	secs("embedding.health_timeout_secs", &c.Embedding.HealthTimeout)
	float("embedding.requests_per_second", &c.Embedding.RequestsPerSecond)

	str("model.provider", &c.Model.Provider)
	str("model.name", &c.Model.Name)
	integer("model.dimensions", &c.Model.Dimensions)
	integer("model.max_input_length", &c.Model.MaxInputLength)
	str("model.base_url", &c.Model.BaseURL)
	str("model.api_key_env", &c.Model.APIKeyEnv)
	integer("model.batch_size", &c.Model.BatchSize)
	integer("model.concurrency", &c.Model.Concurrency)

	str("server.addr", &c.Server.Addr)
	secs("server.read_timeout_secs", &c.Server.ReadTimeout)
	secs("server.write_timeout_secs", &c.Server.WriteTimeout)

	float("retrieval.alpha", &c.Retrieval.Alpha)
	integer("retrieval.top_k", &c.Retrieval.TopK)

	str("storage.metadata", &c.Storage.Metadata)
	str("storage.vector", &c.Storage.Vector)
	str("storage.data_dir", &c.Storage.DataDir)
	str("storage.postgres_url", &c.Storage.PostgresURL)

	if s.GetBool("log.verbose") {
		c.Verbose = true
	}
}

// applyEnv overrides values from environment variables. lookup is
// os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = f
		}
	}

	str("HYBRIDRAG_EMBEDDING_MODE", &c.Embedding.Mode)
	str("EMBEDDING_SERVICE_URL", &c.Embedding.URL)
	var timeoutSecs float64
	float("HYBRIDRAG_EMBEDDING_TIMEOUT_SECS", &timeoutSecs)
	if timeoutSecs != 0 {
		c.Embedding.Timeout = time.Duration(timeoutSecs * float64(time.Second))
	}

	str("HYBRIDRAG_MODEL_PROVIDER", &c.Model.Provider)
	str("HYBRIDRAG_MODEL_NAME", &c.Model.Name)
	integer("HYBRIDRAG_MODEL_DIMENSIONS", &c.Model.Dimensions)

	str("HYBRIDRAG_SERVER_ADDR", &c.Server.Addr)

	float("HYBRIDRAG_ALPHA", &c.Retrieval.Alpha)
	integer("HYBRIDRAG_TOP_K", &c.Retrieval.TopK)

	str("HYBRIDRAG_METADATA_STORE", &c.Storage.Metadata)
	str("HYBRIDRAG_VECTOR_INDEX", &c.Storage.Vector)
	str("HYBRIDRAG_DATA_DIR", &c.Storage.DataDir)
	str("DATABASE_URL", &c.Storage.PostgresURL)

	if v, ok := get("HYBRIDRAG_VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("HYBRIDRAG_VERBOSE: %w", err))
		} else {
			c.Verbose = b
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: environment: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}
