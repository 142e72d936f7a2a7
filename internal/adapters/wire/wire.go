// Package wire defines the JSON request and response bodies of the
// embedding service HTTP API, shared by the server and the client.
package wire

import "github.com/custodia-labs/hybridrag/internal/core/domain"

// Routes.
const (
	PathHealth      = "/health"
	PathEmbed       = "/embed"
	PathEmbedBatch  = "/embed-batch"
	PathEmbedChunks = "/embed-chunks"
	PathModelInfo   = "/model-info"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotReady     = "not_ready"
	CodeInternal     = "internal"
)

// EmbedRequest is the body of POST /embed.
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse is the reply to POST /embed and one item of a batch reply.
// The source text is echoed so callers can check ordering.
type EmbedResponse struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// EmbedBatchRequest is the body of POST /embed-batch.
type EmbedBatchRequest struct {
	Texts []string `json:"texts"`
}

// EmbedBatchResponse is the reply to POST /embed-batch.
type EmbedBatchResponse struct {
	Embeddings []EmbedResponse `json:"embeddings"`
}

// EmbedChunksRequest is the body of POST /embed-chunks.
type EmbedChunksRequest struct {
	Chunks []domain.ChunkPayload `json:"chunks"`
}

// EmbedChunksResponse is the reply to POST /embed-chunks.
type EmbedChunksResponse struct {
	Chunks []domain.ChunkPayload `json:"chunks"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
