package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"consilium/internal/domain/memory"
)

// Compile-time check
var _ memory.Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-process memory.Repository used for tests and
// single-node development. Writes take the write lock; retrieval is
// read-concurrent.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*memory.Record
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Store appends a record.
func (r *MemoryRepository) Store(_ context.Context, rec *memory.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

// Len returns the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// SearchSimilar ranks records by cosine similarity, recency as tiebreak.
// An empty store yields an empty slice.
func (r *MemoryRepository) SearchSimilar(_ context.Context, embedding pgvector.Vector, limit int) ([]*memory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := embedding.Slice()

	ranked := make([]*memory.Record, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		cp.Similarity = cosine(query, rec.Embedding.Slice())
		ranked = append(ranked, &cp)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
