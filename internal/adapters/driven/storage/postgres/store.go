// Package postgres provides a PostgreSQL-backed metadata store for
// deployments where several processes share one chunk catalogue.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL,
	sequence_index INTEGER NOT NULL DEFAULT 0,
	text TEXT NOT NULL,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks (doc_id, sequence_index);
`

// MetadataStore handles chunk persistence in PostgreSQL.
type MetadataStore struct {
	db *sql.DB
}

// NewMetadataStore opens a connection, checks it and ensures the schema exists.
func NewMetadataStore(ctx context.Context, databaseURL string) (*MetadataStore, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrServiceUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &MetadataStore{db: db}, nil
}

// Close closes the database connection.
func (s *MetadataStore) Close() error {
	return s.db.Close()
}

// UpsertChunk stores or replaces a single chunk.
func (s *MetadataStore) UpsertChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.UpsertChunks(ctx, []domain.Chunk{chunk})
}

// UpsertChunks stores or replaces chunks in one transaction.
func (s *MetadataStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: chunk has no ID", domain.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, doc_id, sequence_index, text, metadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (chunk_id) DO UPDATE SET
			doc_id = EXCLUDED.doc_id,
			sequence_index = EXCLUDED.sequence_index,
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		metadata, err := encodeMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Sequence, c.Text, metadata); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *MetadataStore) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	query := `SELECT chunk_id, doc_id, sequence_index, text, metadata
	          FROM chunks WHERE chunk_id = $1`

	var c domain.Chunk
	var metadata []byte
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(&c.ID, &c.DocumentID, &c.Sequence, &c.Text, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	if c.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", c.ID, err)
	}
	return &c, nil
}

// ListChunks returns a document's chunks ordered by sequence.
func (s *MetadataStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	query := `SELECT chunk_id, doc_id, sequence_index, text, metadata
	          FROM chunks WHERE doc_id = $1
	          ORDER BY sequence_index, chunk_id`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Sequence, &c.Text, &metadata); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if c.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteChunks removes chunks by ID.
func (s *MetadataStore) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE chunk_id = ANY($1)`, pq.Array(chunkIDs)); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
