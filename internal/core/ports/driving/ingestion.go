package driving

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// IngestionService turns a document's chunks into embedded records held
// consistently by the metadata store and the vector index.
type IngestionService interface {
	// Ingest embeds and stores a document's chunks. Failures are reported
	// as *domain.IngestionError naming the failed stage.
	Ingest(ctx context.Context, documentID string, chunks []domain.Chunk) (*domain.IngestionReport, error)

	// Delete removes every chunk of a document from both stores.
	Delete(ctx context.Context, documentID string) (int, error)
}
