// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants retrieve context from the hybrid index and,
// when ingestion is wired, add documents to it.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errIngestionDisabled is returned by the ingest tool when no ingestion service is wired.
var errIngestionDisabled = errors.New("mcp: ingestion is not enabled on this server")
