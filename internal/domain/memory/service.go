package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"consilium/internal/adapters/embeddings"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// Composer turns a (situation, decision, outcome) triple into a lesson.
// Typically backed by the reasoning service; nil is allowed, in which
// case the outcome text doubles as the lesson.
type Composer interface {
	ComposeLesson(ctx context.Context, situation, decision, outcome string) (string, error)
}

// Service is the reflection memory: an append-only store of past
// decisions and their outcomes, retrieved by situation similarity to
// inject lessons into future prompts. Writes are serialized; reads run
// concurrently.
type Service struct {
	repo     Repository
	embedder embeddings.Provider
	composer Composer

	storeMu sync.Mutex
	log     *logger.Logger
}

// NewService constructs a reflection memory service.
func NewService(repo Repository, embedder embeddings.Provider, composer Composer) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		composer: composer,
		log:      logger.Get().With("component", "reflection_memory"),
	}
}

// Store records a reflection. The situation is embedded before insert;
// concurrent Store calls are serialized so no write is lost.
func (s *Service) Store(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.ErrInvalidInput
	}
	if rec.Situation == "" {
		return errors.Wrap(errors.ErrInvalidInput, "situation is required")
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, rec.Situation)
	if err != nil {
		return errors.Wrap(err, "embed situation")
	}
	rec.Embedding = pgvector.NewVector(vec)
	rec.EmbeddingModel = s.embedder.Name()
	rec.EmbeddingDimensions = s.embedder.Dimensions()

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if err := s.repo.Store(ctx, rec); err != nil {
		return errors.Wrap(err, "store reflection")
	}

	s.log.Debugw("stored reflection", "ticker", rec.Ticker, "run_id", rec.RunID)
	return nil
}

// Retrieve returns up to k lessons most similar to the situation,
// most-similar first. Empty memory yields an empty slice.
func (s *Service) Retrieve(ctx context.Context, situation string, k int) ([]*Record, error) {
	if k <= 0 {
		return []*Record{}, nil
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, situation)
	if err != nil {
		return nil, errors.Wrap(err, "embed situation")
	}

	records, err := s.repo.SearchSimilar(ctx, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, errors.Wrap(err, "search reflections")
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}

// Reflect composes a lesson for a completed run and stores it. When no
// composer is configured the outcome text itself is kept as the lesson.
func (s *Service) Reflect(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.ErrInvalidInput
	}

	if s.composer != nil {
		lesson, err := s.composer.ComposeLesson(ctx, rec.Situation, rec.Decision, rec.Outcome)
		if err != nil {
			return errors.Wrap(err, "compose lesson")
		}
		rec.Lesson = lesson
	}
	if rec.Lesson == "" {
		rec.Lesson = rec.Outcome
	}

	return s.Store(ctx, rec)
}
