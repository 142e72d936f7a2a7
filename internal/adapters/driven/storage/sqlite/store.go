package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/ranking"
)

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "hybridrag.db"

// Store is a unified SQLite-based storage that provides the metadata store
// and the vector index through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.hybridrag/data/hybridrag.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".hybridrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MetadataStore returns a MetadataStore interface backed by this store.
// Closing it closes the whole store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
// Closing it closes the whole store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// deleteByID removes rows from table in one transaction.
func (s *Store) deleteByID(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM "+table+" WHERE chunk_id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// UpsertChunk stores or replaces a single chunk.
func (s *metadataStore) UpsertChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.UpsertChunks(ctx, []domain.Chunk{chunk})
}

// UpsertChunks stores or replaces chunks in one transaction.
func (s *metadataStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: chunk has no ID", domain.ErrInvalidInput)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, doc_id, sequence_index, text, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			doc_id = excluded.doc_id,
			sequence_index = excluded.sequence_index,
			text = excluded.text,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadata, err := marshalFields(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Sequence,
			chunk.Text, metadata); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *metadataStore) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, sequence_index, text, metadata
		FROM chunks WHERE chunk_id = ?
	`, chunkID)

	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// ListChunks returns a document's chunks ordered by sequence.
func (s *metadataStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, doc_id, sequence_index, text, metadata
		FROM chunks WHERE doc_id = ?
		ORDER BY sequence_index, chunk_id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteChunks removes chunks by ID.
func (s *metadataStore) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	return s.store.deleteByID(ctx, "chunks", chunkIDs)
}

// Close closes the underlying store.
func (s *metadataStore) Close() error {
	return s.store.Close()
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with brute-force hybrid ranking
// over every stored record.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// UpsertVector stores or replaces a single record.
func (s *vectorIndex) UpsertVector(ctx context.Context, record domain.VectorRecord) error {
	return s.UpsertVectors(ctx, []domain.VectorRecord{record})
}

// UpsertVectors stores or replaces records in one transaction. An existing
// record keeps its rowid.
func (s *vectorIndex) UpsertVectors(ctx context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (chunk_id, doc_id, sequence_index, text, embedding, dimensions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			doc_id = excluded.doc_id,
			sequence_index = excluded.sequence_index,
			text = excluded.text,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ChunkID, r.DocumentID, r.Sequence, r.Text,
			float32SliceToBytes(r.Vector), len(r.Vector)); err != nil {
			return fmt.Errorf("saving vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteVectors removes records by chunk ID.
func (s *vectorIndex) DeleteVectors(ctx context.Context, chunkIDs []string) error {
	return s.store.deleteByID(ctx, "vectors", chunkIDs)
}

// HybridQuery loads every record in insertion order and ranks them.
func (s *vectorIndex) HybridQuery(ctx context.Context, q domain.HybridQuery) ([]domain.RetrievalResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, doc_id, sequence_index, text, embedding
		FROM vectors ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.VectorRecord
		var blob []byte
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Sequence, &r.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		r.Vector = bytesToFloat32Slice(blob)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return ranking.Rank(records, q)
}

// Count returns the number of indexed records.
func (s *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Close closes the underlying store.
func (s *vectorIndex) Close() error {
	return s.store.Close()
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadata sql.NullString

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Sequence, &chunk.Text, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	return &chunk, nil
}

// marshalFields encodes metadata for storage. Absent metadata is stored as NULL.
func marshalFields(f domain.Fields) (sql.NullString, error) {
	if f == nil {
		return sql.NullString{}, nil
	}
	raw, err := domain.EncodeJSON(f)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
