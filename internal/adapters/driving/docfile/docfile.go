// Package docfile reads pre-chunked documents from JSON files.
//
// A file holds one document or an array of documents:
//
//	{"doc_id": "D1", "chunks": [{"text": "...", "metadata": {"title": "..."}}]}
//
// Each chunk may carry chunk_id and sequence_index; when absent the
// ingestion service derives the ID and the sequence is the chunk's
// position in the file.
package docfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// Document is one parsed document.
type Document struct {
	ID     string
	Chunks []domain.Chunk
}

type fileChunk struct {
	ChunkID  string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Sequence *int          `json:"sequence_index"`
	Metadata domain.Fields `json:"metadata"`
}

type fileDocument struct {
	DocumentID string      `json:"doc_id"`
	Chunks     []fileChunk `json:"chunks"`
}

// IsDocumentFile reports whether path looks like a document file.
func IsDocumentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json") && !strings.HasPrefix(filepath.Base(path), ".")
}

// ParseFile reads documents from path. A single document without doc_id
// takes the file name (without extension) as its ID.
func ParseFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs, err := parse(f, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Parse reads documents from r. Every document must carry a doc_id.
func Parse(r io.Reader) ([]Document, error) {
	return parse(r, "")
}

func parse(r io.Reader, fallbackID string) ([]Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document file", domain.ErrInvalidInput)
	}

	var files []fileDocument
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &files); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
	} else {
		var one fileDocument
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if one.DocumentID == "" {
			one.DocumentID = fallbackID
		}
		files = []fileDocument{one}
	}

	docs := make([]Document, 0, len(files))
	for i, fd := range files {
		if fd.DocumentID == "" {
			return nil, fmt.Errorf("%w: document %d has no doc_id", domain.ErrInvalidInput, i)
		}
		doc := Document{ID: fd.DocumentID, Chunks: make([]domain.Chunk, len(fd.Chunks))}
		for j, fc := range fd.Chunks {
			seq := j
			if fc.Sequence != nil {
				seq = *fc.Sequence
			}
			doc.Chunks[j] = domain.Chunk{
				ID:         fc.ChunkID,
				DocumentID: fd.DocumentID,
				Text:       fc.Text,
				Sequence:   seq,
				Metadata:   fc.Metadata,
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
