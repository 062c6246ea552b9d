package memory

import (
	"context"

	"github.com/pgvector/pgvector-go"
)

// Repository persists reflection records. Stores are append-only; the
// core never deletes records (retention is an external policy).
type Repository interface {
	Store(ctx context.Context, rec *Record) error

	// SearchSimilar returns up to limit records ordered most-similar
	// first, recency breaking ties. An empty store yields an empty
	// slice, never an error.
	SearchSimilar(ctx context.Context, embedding pgvector.Vector, limit int) ([]*Record, error)
}
