// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingModel: The model runtime hosted by the embedding service
//   - EmbeddingClient: Remote (or in-process) access to the embedding service
//   - MetadataStore: Authoritative chunk text and metadata, keyed by chunk ID
//   - VectorIndex: Chunk vectors plus text, searched with hybrid scoring
//   - ConfigStore: File-backed configuration values
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
