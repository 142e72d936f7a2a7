// Package domain defines the core entities of the ingestion and retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A searchable unit of a source document
//   - ChunkPayload: The wire form of a chunk crossing the embedding boundary
//   - ModelInfo: The identity of the loaded embedding model
//   - RetrievalResult: A ranked chunk returned by hybrid retrieval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
