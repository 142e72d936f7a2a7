// Package openai provides an embedding model runtime for OpenAI-compatible APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultModel          = "text-embedding-3-small"
	DefaultTimeout        = 60 * time.Second
	DefaultMaxInputLength = 8191
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI model runtime.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL overrides the API base URL for compatible services.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions requests shortened vectors from text-embedding-3-* models.
	// Zero uses the model's native size, probing unknown models at load.
	Dimensions int

	// MaxInputLength is reported in ModelInfo (default: 8191).
	MaxInputLength int
}

// Model generates embeddings through go-openai.
type Model struct {
	client *goopenai.Client
	cfg    Config
}

// New creates a new OpenAI model runtime.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
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

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Model{
		client: goopenai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Load resolves the vector size, embedding a probe text for unknown models.
func (m *Model) Load(ctx context.Context) (domain.ModelInfo, error) {
	dims := m.cfg.Dimensions
	if dims == 0 {
		dims = modelDimensions[m.cfg.Model]
	}
	if dims == 0 {
		vecs, err := m.Encode(ctx, []string{"dimension probe"})
		if err != nil {
			return domain.ModelInfo{}, fmt.Errorf("openai: probing dimensions: %w", err)
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

// Encode embeds texts with one API call, restoring input order by index.
func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	req := goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(m.cfg.Model),
		Input: texts,
	}
	if m.cfg.Dimensions > 0 {
		req.Dimensions = m.cfg.Dimensions
	}

	resp, err := m.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d texts",
			domain.ErrInvalidResponse, len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if d.Index != i {
			return nil, fmt.Errorf("%w: openai returned index %d at position %d",
				domain.ErrInvalidResponse, d.Index, i)
		}
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		out[i] = v
	}
	return out, nil
}

// Close releases resources.
func (m *Model) Close() error {
	return nil
}
