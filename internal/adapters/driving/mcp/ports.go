package mcp

import (
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers search queries. Required.
	Retrieval driving.RetrievalService

	// Ingestion adds documents. Optional; the ingest tool fails without it.
	Ingestion driving.IngestionService

	// Embedding reports model and health information. Optional.
	Embedding driven.EmbeddingClient

	// Metadata serves document resources. Optional.
	Metadata driven.MetadataStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
