package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string   `json:"query" jsonschema:"the natural language query"`
	K     int      `json:"k,omitempty" jsonschema:"maximum number of chunks to return (server default when omitted)"`
	Alpha *float64 `json:"alpha,omitempty" jsonschema:"weight of vector similarity from 0 (lexical only) to 1 (vector only)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
	Context string               `json:"context"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	ChunkID       string          `json:"chunk_id"`
	DocumentID    string          `json:"doc_id"`
	Sequence      int             `json:"sequence_index"`
	Text          string          `json:"text"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CombinedScore float64         `json:"combined_score"`
	LexicalScore  float64         `json:"lexical_score"`
	VectorScore   float64         `json:"vector_score"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	DocumentID string        `json:"doc_id" jsonschema:"identifier of the document; re-ingesting replaces it"`
	Chunks     []IngestChunk `json:"chunks" jsonschema:"the document's chunks in order"`
}

// IngestChunk is one chunk of an ingest request.
type IngestChunk struct {
	Text     string         `json:"text" jsonschema:"chunk text"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"attributes such as title or filename"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID     string   `json:"doc_id"`
	ChunkIDs       []string `json:"chunk_ids"`
	ChunksIngested int      `json:"chunks_ingested"`
	StaleRemoved   int      `json:"stale_removed"`
}

// ModelInfoInput is the (empty) input schema for the model_info tool.
type ModelInfoInput struct{}

// ModelInfoOutput is the output schema for the model_info tool.
type ModelInfoOutput struct {
	Ready bool              `json:"ready"`
	Model *domain.ModelInfo `json:"model,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the document chunks most relevant to a query using hybrid lexical and vector ranking",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Embed and index a document given as ordered text chunks",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "model_info",
		Description: "Report the embedding model and whether it is ready",
	}, s.handleModelInfo)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.Retrieval.DefaultOptions()
	if input.K > 0 {
		opts.K = input.K
	}
	if input.Alpha != nil {
		opts.Alpha = *input.Alpha
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
		Context: domain.FormatContext(results),
	}

	for i, r := range results {
		out := SearchResultOutput{
			ChunkID:       r.ChunkID,
			DocumentID:    r.DocumentID,
			Sequence:      r.Sequence,
			Text:          r.Text,
			CombinedScore: r.CombinedScore,
			LexicalScore:  r.LexicalScore,
			VectorScore:   r.VectorScore,
		}
		if r.Metadata != nil {
			raw, err := domain.EncodeJSON(r.Metadata)
			if err != nil {
				return nil, SearchOutput{}, fmt.Errorf("encoding metadata for %s: %w", r.ChunkID, err)
			}
			out.Metadata = raw
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, IngestOutput{}, errIngestionDisabled
	}

	chunks := make([]domain.Chunk, len(input.Chunks))
	for i, c := range input.Chunks {
		metadata, err := domain.NewFields(c.Metadata)
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("%w: chunk %d metadata: %w", domain.ErrInvalidInput, i, err)
		}
		chunks[i] = domain.Chunk{Text: c.Text, Sequence: i, Metadata: metadata}
	}

	report, err := s.ports.Ingestion.Ingest(ctx, input.DocumentID, chunks)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:     report.DocumentID,
		ChunkIDs:       report.ChunkIDs,
		ChunksIngested: report.ChunksIngested,
		StaleRemoved:   report.StaleRemoved,
	}, nil
}

// handleModelInfo handles the model_info tool invocation.
func (s *Server) handleModelInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ModelInfoInput,
) (*mcp.CallToolResult, ModelInfoOutput, error) {
	if s.ports.Embedding == nil {
		return nil, ModelInfoOutput{}, fmt.Errorf("%w: no embedding client configured", domain.ErrServiceUnavailable)
	}

	status, err := s.ports.Embedding.Health(ctx)
	if err != nil {
		return nil, ModelInfoOutput{}, err
	}
	if !status.Ready {
		return nil, ModelInfoOutput{Ready: false}, nil
	}

	info, err := s.ports.Embedding.ModelInfo(ctx)
	if err != nil {
		return nil, ModelInfoOutput{}, err
	}
	return nil, ModelInfoOutput{Ready: true, Model: info}, nil
}
