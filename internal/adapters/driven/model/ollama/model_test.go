package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

func newTestServer(t *testing.T, handler func(texts []string) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			var req embedRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "bge-m3", req.Model)
			status, body := handler(req.Input)
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okEmbeddings(texts []string) (int, any) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return http.StatusOK, embedResponse{Embeddings: out}
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{})
	assert.Equal(t, DefaultBaseURL, m.cfg.BaseURL)
	assert.Equal(t, DefaultModel, m.cfg.Model)
	assert.Equal(t, DefaultTimeout, m.cfg.Timeout)
}

func TestModel_LoadProbesDimensions(t *testing.T) {
	srv := newTestServer(t, okEmbeddings)
	m := New(Config{BaseURL: srv.URL, Model: "bge-m3"})

	info, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", info.Name)
	assert.Equal(t, 3, info.Dimensions)
	assert.Equal(t, "remote", info.Device)
}

func TestModel_LoadUsesConfiguredDimensions(t *testing.T) {
	srv := newTestServer(t, func([]string) (int, any) {
		t.Error("no probe expected")
		return http.StatusInternalServerError, nil
	})
	m := New(Config{BaseURL: srv.URL, Model: "bge-m3", Dimensions: 1024})

	info, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1024, info.Dimensions)
}

func TestModel_LoadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Load(context.Background())
	assert.Error(t, err)
}

func TestModel_Encode(t *testing.T) {
	srv := newTestServer(t, okEmbeddings)
	m := New(Config{BaseURL: srv.URL, Model: "bge-m3"})

	vecs, err := m.Encode(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 1, 0}, vecs[1])
}

func TestModel_EncodeCountMismatch(t *testing.T) {
	srv := newTestServer(t, func([]string) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float32{{1}}}
	})
	m := New(Config{BaseURL: srv.URL, Model: "bge-m3"})

	_, err := m.Encode(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestModel_EncodeServerError(t *testing.T) {
	srv := newTestServer(t, func([]string) (int, any) {
		return http.StatusInternalServerError, map[string]string{"error": "model not found"}
	})
	m := New(Config{BaseURL: srv.URL, Model: "bge-m3"})

	_, err := m.Encode(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not found")
}
