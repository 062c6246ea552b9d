package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/pkg/errors"
)

// stubEmbedder produces deterministic two-dimensional vectors so tests
// control similarity ordering exactly.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (e *stubEmbedder) Dimensions() int { return 2 }
func (e *stubEmbedder) Name() string    { return "stub-embedder" }

// stubRepo is a minimal in-package Repository double.
type stubRepo struct {
	mu      sync.Mutex
	stored  []*Record
	results []*Record
}

func (r *stubRepo) Store(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, rec)
	return nil
}

func (r *stubRepo) SearchSimilar(_ context.Context, _ pgvector.Vector, limit int) ([]*Record, error) {
	if len(r.results) > limit {
		return r.results[:limit], nil
	}
	return r.results, nil
}

type stubComposer struct{ lesson string }

func (c *stubComposer) ComposeLesson(_ context.Context, _, _, _ string) (string, error) {
	return c.lesson, nil
}

func TestService_StoreFillsEmbeddingFields(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubEmbedder{}, nil)

	rec := &Record{Ticker: "AAPL", Situation: "strong momentum", Decision: "BUY", Outcome: "+4%"}
	require.NoError(t, svc.Store(context.Background(), rec))

	require.Len(t, repo.stored, 1)
	stored := repo.stored[0]
	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, "stub-embedder", stored.EmbeddingModel)
	assert.Equal(t, 2, stored.EmbeddingDimensions)
	assert.Equal(t, []float32{1, 0}, stored.Embedding.Slice())
}

func TestService_StoreRequiresSituation(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubEmbedder{}, nil)

	err := svc.Store(context.Background(), &Record{Decision: "BUY"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	err = svc.Store(context.Background(), nil)
	require.Error(t, err)
}

func TestService_RetrieveEmptyMemory(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubEmbedder{}, nil)

	got, err := svc.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestService_RetrieveNonPositiveK(t *testing.T) {
	repo := &stubRepo{results: []*Record{{Lesson: "should not appear"}}}
	svc := NewService(repo, &stubEmbedder{}, nil)

	got, err := svc.Retrieve(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_RetrieveCapsAtK(t *testing.T) {
	repo := &stubRepo{results: []*Record{{Lesson: "a"}, {Lesson: "b"}, {Lesson: "c"}}}
	svc := NewService(repo, &stubEmbedder{}, nil)

	got, err := svc.Retrieve(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_ReflectComposesLesson(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubEmbedder{}, &stubComposer{lesson: "trim size after earnings"})

	rec := &Record{Situation: "earnings gap", Decision: "BUY", Outcome: "-6%"}
	require.NoError(t, svc.Reflect(context.Background(), rec))

	require.Len(t, repo.stored, 1)
	assert.Equal(t, "trim size after earnings", repo.stored[0].Lesson)
}

func TestService_ReflectWithoutComposerKeepsOutcome(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubEmbedder{}, nil)

	rec := &Record{Situation: "earnings gap", Decision: "BUY", Outcome: "-6%"}
	require.NoError(t, svc.Reflect(context.Background(), rec))

	require.Len(t, repo.stored, 1)
	assert.Equal(t, "-6%", repo.stored[0].Lesson)
}

func TestService_ConcurrentStores(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubEmbedder{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Store(context.Background(), &Record{Situation: "s"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, repo.stored, 16)
}
