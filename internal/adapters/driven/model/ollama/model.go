// Package ollama provides an embedding model runtime backed by Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultBaseURL        = "http://localhost:11434"
	DefaultModel          = "nomic-embed-text"
	DefaultTimeout        = 120 * time.Second
	DefaultMaxInputLength = 8192
)

// Config holds configuration for the Ollama model runtime.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Dimensions is the expected vector size. Zero probes the model at load.
	Dimensions int

	// MaxInputLength is reported in ModelInfo (default: 8192).
	MaxInputLength int
}

// Model generates embeddings using Ollama's batch embed endpoint.
type Model struct {
	client *http.Client
	cfg    Config
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// New creates a new Ollama model runtime.
func New(cfg Config) *Model {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputLength == 0 {
		cfg.MaxInputLength = DefaultMaxInputLength
	}
	return &Model{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Load checks Ollama is reachable and, when no dimension is configured,
// embeds a probe text to learn it.
func (m *Model) Load(ctx context.Context) (domain.ModelInfo, error) {
	if err := m.ping(ctx); err != nil {
		return domain.ModelInfo{}, err
	}

	dims := m.cfg.Dimensions
	if dims == 0 {
		vecs, err := m.Encode(ctx, []string{"dimension probe"})
		if err != nil {
			return domain.ModelInfo{}, fmt.Errorf("ollama: probing dimensions: %w", err)
		}
		dims = len(vecs[0])
	}

	return domain.ModelInfo{
		Name:           m.cfg.Model,
		Dimensions:     dims,
		Device:         "remote",
		MaxInputLength: m.cfg.MaxInputLength,
	}, nil
}

// Encode embeds texts with one /api/embed call.
func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{Model: m.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d texts",
			domain.ErrInvalidResponse, len(embedResp.Embeddings), len(texts))
	}
	return embedResp.Embeddings, nil
}

// ping checks the /api/tags endpoint without running inference.
func (m *Model) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (m *Model) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
