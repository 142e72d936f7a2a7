package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/hybridrag/internal/adapters/driven/model/hashing"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/services"
)

func TestHealthCmd_NilClient(t *testing.T) {
	_, err := runCommand(t, "health")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding client not configured")
}

func TestHealthCmd_Ready(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCommand(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding service: healthy")
	assert.Contains(t, out, "Model: test-hash")
}

func TestHealthCmd_Loading(t *testing.T) {
	svc := services.NewEmbeddingService(hashing.New(hashing.Config{}), services.EmbeddingOptions{})
	SetServices(Services{Client: local.New(svc)})
	defer SetServices(Services{})

	out, err := runCommand(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding service: loading (model not ready)")
}

func TestModelInfoCmd_Table(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCommand(t, "model-info")

	require.NoError(t, err)
	assert.Contains(t, out, "Model:       test-hash")
	assert.Contains(t, out, "Dimensions:  64")
	assert.Contains(t, out, "Device:      cpu")
}

func TestModelInfoCmd_JSON(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := runCommand(t, "model-info", "--json")

	require.NoError(t, err)
	var info domain.ModelInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, testDimensions, info.Dimensions)
}

func TestModelInfoCmd_NotReady(t *testing.T) {
	svc := services.NewEmbeddingService(hashing.New(hashing.Config{}), services.EmbeddingOptions{})
	SetServices(Services{Client: local.New(svc)})
	defer SetServices(Services{})

	_, err := runCommand(t, "model-info")

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.ErrorIs(t, err, domain.ErrNotReady)
}
