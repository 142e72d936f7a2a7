package ranking

import (
	"fmt"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// Rank scores records against a hybrid query and returns the top results.
// Records must be given in insertion order. Any record whose vector length
// differs from the query vector fails the query with domain.ErrInvalidInput.
func Rank(records []domain.VectorRecord, q domain.HybridQuery) ([]domain.RetrievalResult, error) {
	if len(records) == 0 {
		return []domain.RetrievalResult{}, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	lexical := NewBM25(texts).Scores(q.Text)

	candidates := make([]Candidate, len(records))
	for i, r := range records {
		sim, err := Cosine(q.Vector, r.Vector)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s has %d dimensions, query has %d",
				domain.ErrInvalidInput, r.ChunkID, len(r.Vector), len(q.Vector))
		}
		candidates[i] = Candidate{Position: i, Lexical: lexical[i], Vector: sim}
	}

	top := Blend(candidates, q.Alpha, q.K)
	results := make([]domain.RetrievalResult, len(top))
	for i, c := range top {
		r := records[c.Position]
		results[i] = domain.RetrievalResult{
			ChunkID:       r.ChunkID,
			DocumentID:    r.DocumentID,
			Sequence:      r.Sequence,
			Text:          r.Text,
			LexicalScore:  c.Lexical,
			VectorScore:   c.Vector,
			CombinedScore: c.Combined,
		}
	}
	return results, nil
}
