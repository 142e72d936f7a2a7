// Package sqlite provides SQLite-backed implementations of the metadata
// store and the vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both interfaces share one database:
//
//   - MetadataStore: chunk text and metadata, the authoritative record
//   - VectorIndex: chunk vectors and text, queried with hybrid ranking
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.hybridrag/data/hybridrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
