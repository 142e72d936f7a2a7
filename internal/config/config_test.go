package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ModeRemote, cfg.Embedding.Mode)
	assert.Equal(t, "http://localhost:8001", cfg.Embedding.URL)
	assert.Equal(t, 300*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Embedding.HealthTimeout)
	assert.Equal(t, ProviderHashing, cfg.Model.Provider)
	assert.Equal(t, 384, cfg.Model.Dimensions)
	assert.Equal(t, ":8001", cfg.Server.Addr)
	assert.Equal(t, domain.DefaultQueryOptions(), cfg.QueryOptions())
	assert.Equal(t, DriverSQLite, cfg.Storage.Metadata)
	assert.Equal(t, DriverSQLite, cfg.Storage.Vector)
	assert.True(t, filepath.IsAbs(cfg.Storage.DataDir) || cfg.Storage.DataDir == ".hybridrag/data")
	assert.NoError(t, cfg.Validate())
}

func TestApplyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[embedding]
mode = "local"
timeout_secs = 12
requests_per_second = 2.5

[model]
provider = "ollama"
name = "nomic-embed-text"
dimensions = 768

[retrieval]
alpha = 0.8
top_k = 3

[storage]
vector = "memory"

[log]
verbose = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)

	cfg := Default()
	cfg.applyStore(store)

	assert.Equal(t, ModeLocal, cfg.Embedding.Mode)
	assert.Equal(t, 12*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 2.5, cfg.Embedding.RequestsPerSecond)
	assert.Equal(t, ProviderOllama, cfg.Model.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Model.Name)
	assert.Equal(t, 768, cfg.Model.Dimensions)
	assert.Equal(t, 0.8, cfg.Retrieval.Alpha)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, DriverMemory, cfg.Storage.Vector)
	assert.Equal(t, DriverSQLite, cfg.Storage.Metadata)
	assert.True(t, cfg.Verbose)
}

func TestApplyStore_ZeroAlphaIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  alpha: 0\n"), 0600))
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)

	cfg := Default()
	cfg.applyStore(store)
	assert.Equal(t, 0.0, cfg.Retrieval.Alpha)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"EMBEDDING_SERVICE_URL":            "http://gpu-box:9000",
		"HYBRIDRAG_EMBEDDING_TIMEOUT_SECS": "60",
		"HYBRIDRAG_MODEL_PROVIDER":         "openai",
		"HYBRIDRAG_MODEL_DIMENSIONS":       "1536",
		"HYBRIDRAG_ALPHA":                  "0.25",
		"HYBRIDRAG_TOP_K":                  "10",
		"HYBRIDRAG_METADATA_STORE":         "postgres",
		"DATABASE_URL":                     "postgres://localhost/rag",
		"HYBRIDRAG_VERBOSE":                "true",
		"HYBRIDRAG_SERVER_ADDR":            " ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:9000", cfg.Embedding.URL)
	assert.Equal(t, time.Minute, cfg.Embedding.Timeout)
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, 1536, cfg.Model.Dimensions)
	assert.Equal(t, 0.25, cfg.Retrieval.Alpha)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, DriverPostgres, cfg.Storage.Metadata)
	assert.Equal(t, "postgres://localhost/rag", cfg.Storage.PostgresURL)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, ":8001", cfg.Server.Addr, "blank values are ignored")
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"HYBRIDRAG_TOP_K":   "many",
		"HYBRIDRAG_ALPHA":   "half",
		"HYBRIDRAG_VERBOSE": "loud",
	}))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "HYBRIDRAG_TOP_K")
	assert.Contains(t, err.Error(), "HYBRIDRAG_ALPHA")
	assert.Contains(t, err.Error(), "HYBRIDRAG_VERBOSE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"alpha too high", func(c *Config) { c.Retrieval.Alpha = 1.5 }, "retrieval.alpha"},
		{"alpha negative", func(c *Config) { c.Retrieval.Alpha = -0.1 }, "retrieval.alpha"},
		{"top k zero", func(c *Config) { c.Retrieval.TopK = 0 }, "retrieval.top_k"},
		{"dimensions", func(c *Config) { c.Model.Dimensions = 0 }, "model.dimensions"},
		{"provider", func(c *Config) { c.Model.Provider = "bert" }, "model.provider"},
		{"mode", func(c *Config) { c.Embedding.Mode = "grpc" }, "embedding.mode"},
		{"remote without url", func(c *Config) { c.Embedding.URL = "" }, "embedding.url"},
		{"metadata driver", func(c *Config) { c.Storage.Metadata = "mongo" }, "storage.metadata"},
		{"vector driver", func(c *Config) { c.Storage.Vector = "postgres" }, "storage.vector"},
		{"postgres without url", func(c *Config) { c.Storage.Metadata = DriverPostgres }, "storage.postgres_url"},
		{"batch size", func(c *Config) { c.Model.BatchSize = 0 }, "model.batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_LocalModeNeedsNoURL(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Mode = ModeLocal
	cfg.Embedding.URL = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[retrieval]\ntop_k = 3\n"), 0600))
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)

	t.Setenv("HYBRIDRAG_TOP_K", "9")

	cfg, err := Load(store)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestLoad_InvalidFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[retrieval]\nalpha = 2.0\n"), 0600))
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)
	t.Setenv("HYBRIDRAG_ALPHA", "")

	_, err = Load(store)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestModelConfig_APIKey(t *testing.T) {
	t.Setenv("TEST_HYBRIDRAG_KEY", "sk-test")
	m := ModelConfig{APIKeyEnv: "TEST_HYBRIDRAG_KEY"}
	assert.Equal(t, "sk-test", m.APIKey())
}

func TestApplyStore_SecondsAcceptIntegers(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"embedding.health_timeout_secs": int64(2),
		"server.write_timeout_secs":     0.5,
		"storage.metadata":              DriverPostgres,
		"storage.postgres_url":          "postgres://localhost/rag",
	})

	cfg := Default()
	cfg.applyStore(store)

	assert.Equal(t, 2*time.Second, cfg.Embedding.HealthTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.WriteTimeout)
	assert.Equal(t, DriverPostgres, cfg.Storage.Metadata)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NilStoreUsesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTopK, cfg.QueryOptions().K)
}
