package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"consilium/internal/domain/memory"
)

// Compile-time check
var _ memory.Repository = (*MemoryRepository)(nil)

// MemoryRepository implements memory.Repository using sqlx and pgvector.
type MemoryRepository struct {
	db *sqlx.DB
}

// NewMemoryRepository creates a new memory repository.
func NewMemoryRepository(db *sqlx.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Store inserts a new reflection record.
func (r *MemoryRepository) Store(ctx context.Context, rec *memory.Record) error {
	query := `
		INSERT INTO reflections (
			id, run_id, ticker, situation, decision, outcome, lesson,
			embedding, embedding_model, embedding_dimensions, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.RunID, rec.Ticker, rec.Situation, rec.Decision, rec.Outcome, rec.Lesson,
		rec.Embedding, rec.EmbeddingModel, rec.EmbeddingDimensions, rec.CreatedAt,
	)

	return err
}

// SearchSimilar performs semantic search using pgvector cosine distance,
// most-similar first, recency as tiebreak.
func (r *MemoryRepository) SearchSimilar(ctx context.Context, embedding pgvector.Vector, limit int) ([]*memory.Record, error) {
	records := []*memory.Record{}

	query := `
		SELECT *, 1 - (embedding <=> $1) as similarity
		FROM reflections
		ORDER BY embedding <=> $1, created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &records, query, embedding, limit)
	if err != nil {
		return nil, err
	}

	return records, nil
}
