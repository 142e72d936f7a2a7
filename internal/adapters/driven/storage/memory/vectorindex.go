package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/ranking"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory implementation of driven.VectorIndex.
// Records keep the position of their first insertion, which ranking uses
// as the final tie-break.
type VectorIndex struct {
	mu       sync.RWMutex
	records  []domain.VectorRecord
	position map[string]int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{position: make(map[string]int)}
}

// UpsertVector stores or replaces a single record.
func (v *VectorIndex) UpsertVector(ctx context.Context, record domain.VectorRecord) error {
	return v.UpsertVectors(ctx, []domain.VectorRecord{record})
}

// UpsertVectors stores or replaces records. Validation happens before any
// record is written.
func (v *VectorIndex) UpsertVectors(ctx context.Context, records []domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if pos, ok := v.position[r.ChunkID]; ok {
			v.records[pos] = r
			continue
		}
		v.position[r.ChunkID] = len(v.records)
		v.records = append(v.records, r)
	}
	return nil
}

// DeleteVectors removes records by chunk ID, compacting the remaining
// records without changing their relative order.
func (v *VectorIndex) DeleteVectors(_ context.Context, chunkIDs []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		if _, ok := v.position[id]; ok {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return nil
	}

	kept := v.records[:0]
	for _, r := range v.records {
		if !drop[r.ChunkID] {
			kept = append(kept, r)
		}
	}
	v.records = kept
	v.position = make(map[string]int, len(kept))
	for i, r := range kept {
		v.position[r.ChunkID] = i
	}
	return nil
}

// HybridQuery ranks every record against the query.
func (v *VectorIndex) HybridQuery(ctx context.Context, q domain.HybridQuery) ([]domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ranking.Rank(v.records, q)
}

// Count returns the number of indexed records.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// Get returns the record for chunkID.
func (v *VectorIndex) Get(chunkID string) (domain.VectorRecord, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pos, ok := v.position[chunkID]
	if !ok {
		return domain.VectorRecord{}, false
	}
	return v.records[pos], true
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
