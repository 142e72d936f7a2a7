// Package httpclient provides the HTTP client for the embedding service.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/hybridrag/internal/adapters/wire"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.EmbeddingClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "http://localhost:8001"
	DefaultTimeout       = 300 * time.Second
	DefaultHealthTimeout = 5 * time.Second
	DefaultInfoTimeout   = 10 * time.Second

	// maxErrorBody caps how much of an error reply is read.
	maxErrorBody = 4096
)

// Config holds configuration for the embedding service client.
type Config struct {
	// BaseURL is the embedding service location (default: http://localhost:8001).
	BaseURL string

	// Timeout bounds embedding requests (default: 300s).
	Timeout time.Duration

	// HealthTimeout bounds health checks (default: 5s).
	HealthTimeout time.Duration

	// InfoTimeout bounds model-info requests (default: 10s).
	InfoTimeout time.Duration

	// Dimensions, when set, is checked against every returned vector.
	Dimensions int

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
}

// Client calls the embedding service. It never retries; retry policy
// belongs to the caller.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
}

// New creates a client. The base URL is fixed for the client's lifetime.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.InfoTimeout == 0 {
		cfg.InfoTimeout = DefaultInfoTimeout
	}

	c := &Client{
		http: &http.Client{},
		cfg:  cfg,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the service location the client talks to.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// EmbedSingle embeds one text.
func (c *Client) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	var resp wire.EmbedResponse
	if err := c.call(ctx, c.cfg.Timeout, http.MethodPost, wire.PathEmbed, wire.EmbedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if err := c.checkVector(resp.Embedding, 0); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts, checking that every result echoes its source text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", domain.ErrInvalidInput, i)
		}
	}

	var resp wire.EmbedBatchResponse
	if err := c.call(ctx, c.cfg.Timeout, http.MethodPost, wire.PathEmbedBatch,
		wire.EmbedBatchRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d embeddings",
			domain.ErrInvalidResponse, len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(texts))
	for i, item := range resp.Embeddings {
		if item.Text != texts[i] {
			return nil, fmt.Errorf("%w: embedding %d is for a different text", domain.ErrInvalidResponse, i)
		}
		if err := c.checkVector(item.Embedding, i); err != nil {
			return nil, err
		}
		out[i] = item.Embedding
	}
	return out, nil
}

// EmbedChunks embeds chunk payloads, checking order and field preservation.
func (c *Client) EmbedChunks(ctx context.Context, chunks []domain.ChunkPayload) ([]domain.ChunkPayload, error) {
	if len(chunks) == 0 {
		return []domain.ChunkPayload{}, nil
	}
	for i, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			return nil, fmt.Errorf("%w: chunk at index %d has no text", domain.ErrInvalidInput, i)
		}
	}

	var resp wire.EmbedChunksResponse
	if err := c.call(ctx, c.cfg.Timeout, http.MethodPost, wire.PathEmbedChunks,
		wire.EmbedChunksRequest{Chunks: chunks}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Chunks) != len(chunks) {
		return nil, fmt.Errorf("%w: sent %d chunks, received %d",
			domain.ErrInvalidResponse, len(chunks), len(resp.Chunks))
	}

	for i, got := range resp.Chunks {
		if got.Text != chunks[i].Text {
			return nil, fmt.Errorf("%w: chunk %d came back with different text", domain.ErrInvalidResponse, i)
		}
		if len(got.Fields) != len(chunks[i].Fields) {
			return nil, fmt.Errorf("%w: chunk %d came back with %d fields, sent %d",
				domain.ErrInvalidResponse, i, len(got.Fields), len(chunks[i].Fields))
		}
		for k, v := range chunks[i].Fields {
			if !sameJSON(got.Fields[k], v) {
				return nil, fmt.Errorf("%w: chunk %d field %q was modified", domain.ErrInvalidResponse, i, k)
			}
		}
		if err := c.checkVector(got.Vector, i); err != nil {
			return nil, err
		}
	}
	return resp.Chunks, nil
}

// Health asks the service whether it is ready. A not-ready service is not
// an error here; callers inspect the Ready flag.
func (c *Client) Health(ctx context.Context) (*domain.HealthStatus, error) {
	var status domain.HealthStatus
	err := c.call(ctx, c.cfg.HealthTimeout, http.MethodGet, wire.PathHealth, nil, &status)
	if err != nil && !errors.Is(err, domain.ErrNotReady) {
		return nil, err
	}
	if err != nil {
		status.Ready = false
		if status.Status == "" {
			status.Status = domain.StatusLoading
		}
	}
	return &status, nil
}

// ModelInfo fetches the loaded model's description.
func (c *Client) ModelInfo(ctx context.Context) (*domain.ModelInfo, error) {
	var info domain.ModelInfo
	if err := c.call(ctx, c.cfg.InfoTimeout, http.MethodGet, wire.PathModelInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func sameJSON(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}
	va, errA := decodeJSONValue(a)
	vb, errB := decodeJSONValue(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

// decodeJSONValue decodes raw keeping numbers as written.
func decodeJSONValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Client) checkVector(v []float32, i int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: result %d has no vector", domain.ErrInvalidResponse, i)
	}
	if c.cfg.Dimensions > 0 && len(v) != c.cfg.Dimensions {
		return fmt.Errorf("%w: result %d has %d dimensions, expected %d",
			domain.ErrInvalidResponse, i, len(v), c.cfg.Dimensions)
	}
	return nil
}

// call performs one request and decodes a 200 reply into out.
func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: waiting for rate limiter: %w", domain.ErrServiceUnavailable, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := domain.EncodeJSON(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	logger.Debug("Embedding service %s %s: %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusServiceUnavailable && path == wire.PathHealth {
		// A not-ready health reply still carries the service's status.
		if json.NewDecoder(resp.Body).Decode(out) != nil {
			return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, domain.ErrNotReady)
		}
		return domain.ErrNotReady
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: reading %s: %w", domain.ErrServiceUnavailable, path, err)
		}
		return fmt.Errorf("%w: decoding %s: %w", domain.ErrInvalidResponse, path, err)
	}
	return nil
}

// statusError maps a non-200 reply onto the domain error taxonomy.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var e wire.ErrorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %w: %s", domain.ErrServiceUnavailable, domain.ErrNotReady, msg)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", domain.ErrServiceUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", domain.ErrInvalidResponse, resp.StatusCode, msg)
	}
}
