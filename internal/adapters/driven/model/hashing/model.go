// Package hashing provides a deterministic local embedding model based on
// signed feature hashing of word unigrams and bigrams.
//
// It needs no weights and no network, which makes it the default runtime
// for development and tests. Texts sharing vocabulary get similar vectors;
// it has no notion of synonyms.
package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/ranking"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultName           = "hashing-bigram"
	DefaultDimensions     = 384
	DefaultMaxInputLength = 512
)

// Config holds configuration for the hashing model.
type Config struct {
	// Name is reported in ModelInfo (default: hashing-bigram).
	Name string

	// Dimensions is the vector size (default: 384).
	Dimensions int

	// MaxInputLength is the number of tokens encoded before truncation (default: 512).
	MaxInputLength int
}

// Model is a feature-hashing embedding model.
type Model struct {
	cfg    Config
	closed atomic.Bool
}

// New creates a hashing model.
func New(cfg Config) *Model {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = DefaultMaxInputLength
	}
	return &Model{cfg: cfg}
}

// Load reports the model description. There is nothing to load.
func (m *Model) Load(_ context.Context) (domain.ModelInfo, error) {
	return domain.ModelInfo{
		Name:           m.cfg.Name,
		Dimensions:     m.cfg.Dimensions,
		Device:         "cpu",
		MaxInputLength: m.cfg.MaxInputLength,
	}, nil
}

// Encode hashes every text into a vector.
func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if m.closed.Load() {
		return nil, errors.New("hashing model closed")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.encode(text)
	}
	return out, nil
}

// Close marks the model unusable.
func (m *Model) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *Model) encode(text string) []float32 {
	tokens := ranking.Tokenize(text)
	if len(tokens) > m.cfg.MaxInputLength {
		tokens = tokens[:m.cfg.MaxInputLength]
	}

	counts := make(map[string]int, 2*len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	// Text with no letters or digits still needs a non-zero vector.
	if len(counts) == 0 {
		counts[text] = 1
	}

	v := make([]float32, m.cfg.Dimensions)
	for feature, n := range counts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum64()
		idx := int(sum % uint64(m.cfg.Dimensions))
		weight := 1 + math.Log(float64(n))
		if sum>>63 == 1 {
			weight = -weight
		}
		v[idx] += float32(weight)
	}
	return v
}
