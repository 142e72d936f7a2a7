package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/model/hashing"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/services"
)

const testDimensions = 64

// newTestServices assembles an in-process pipeline over memory stores.
func newTestServices(t *testing.T) Services {
	t.Helper()
	embedding := services.NewEmbeddingService(
		hashing.New(hashing.Config{Name: "test-hash", Dimensions: testDimensions}),
		services.EmbeddingOptions{Dimensions: testDimensions},
	)
	require.NoError(t, embedding.Load(context.Background()))

	client := local.New(embedding)
	metadata := memory.NewMetadataStore()
	vectors := memory.NewVectorIndex()

	retrieval := services.NewRetrievalService(client, vectors, domain.DefaultQueryOptions())
	retrieval.SetMetadataStore(metadata)

	return Services{
		Ingestion: services.NewIngestionService(client, metadata, vectors),
		Retrieval: retrieval,
		Embedding: embedding,
		Client:    client,
		Metadata:  metadata,
	}
}

// setupTestServices installs a fresh pipeline and returns a cleanup func.
func setupTestServices(t *testing.T) func() {
	t.Helper()
	SetServices(newTestServices(t))
	return func() {
		SetServices(Services{})
	}
}

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeDocFile writes a document file into a temp dir and returns its path.
func writeDocFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "hybridrag", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "config flag should exist")

	flag = rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag, "verbose flag should exist")
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "query", "delete", "health", "model-info", "serve", "watch", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestExecute_BootstrapsWithConfigPath(t *testing.T) {
	defer SetServices(Services{})

	var gotPath string
	var released bool
	b := func(_ context.Context, path string) (*Services, func() error, error) {
		gotPath = path
		s := newTestServices(t)
		return &s, func() error {
			released = true
			return nil
		}, nil
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--config", "/tmp/custom.toml", "health"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		bootstrap = nil
	}()

	err := Execute(context.Background(), b)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", gotPath)
	assert.True(t, released)
	assert.Contains(t, buf.String(), "Embedding service: healthy")
}

func TestExecute_BootstrapError(t *testing.T) {
	defer SetServices(Services{})

	b := func(context.Context, string) (*Services, func() error, error) {
		return nil, nil, errors.New("bad config")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"health"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		bootstrap = nil
	}()

	err := Execute(context.Background(), b)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestExecute_VersionSkipsBootstrap(t *testing.T) {
	called := false
	b := func(context.Context, string) (*Services, func() error, error) {
		called = true
		return nil, nil, errors.New("should not be called")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetArgs(nil)
		bootstrap = nil
	}()

	err := Execute(context.Background(), b)

	require.NoError(t, err)
	assert.False(t, called)
	assert.Contains(t, buf.String(), "hybridrag version")
}
