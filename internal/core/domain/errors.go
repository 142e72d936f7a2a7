package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent pipeline failures.
// Adapters wrap these with context; callers match them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Empty texts, bad retrieval parameters and malformed chunks all map here.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotReady indicates the embedding model has not finished loading.
	ErrNotReady = errors.New("embedding model not ready")

	// ErrServiceUnavailable indicates a collaborator could not be reached,
	// timed out, or reported itself unavailable. Callers may retry.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse indicates a collaborator answered but broke its contract
	// (wrong length, wrong order, wrong dimensionality, undecodable body).
	ErrInvalidResponse = errors.New("invalid response")

	// ErrPartialIngestion indicates the metadata store accepted a document
	// but the vector index did not. The document is not retrievable until
	// ingestion is retried.
	ErrPartialIngestion = errors.New("partial ingestion failure")
)

// IngestionStage names the step of an ingestion attempt that failed.
type IngestionStage string

// Ingestion stages in execution order.
const (
	StageValidation    IngestionStage = "validation"
	StageEmbedding     IngestionStage = "embedding"
	StageMetadataWrite IngestionStage = "metadata_write"
	StageVectorWrite   IngestionStage = "vector_write"
)

// IngestionError reports which stage of ingesting a document failed.
type IngestionError struct {
	Stage      IngestionStage
	DocumentID string
	ChunkIDs   []string
	Err        error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ingesting document %q: %s failed", e.DocumentID, e.Stage)
	if len(e.ChunkIDs) > 0 {
		fmt.Fprintf(&b, " (%d chunks)", len(e.ChunkIDs))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Is reports a vector write failure as ErrPartialIngestion, since the
// metadata write for the same chunks has already committed.
func (e *IngestionError) Is(target error) bool {
	return target == ErrPartialIngestion && e.Stage == StageVectorWrite
}

// IsRetryable returns true if the operation that produced err may succeed
// when repeated without changing its input.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrPartialIngestion)
}
