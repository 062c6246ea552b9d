package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Record is one reflection: the situation an agent faced, the decision
// taken, the realized outcome and the lesson derived from it. Records
// are created once an outcome becomes known and are read-only afterward.
type Record struct {
	ID     uuid.UUID `db:"id"`
	RunID  uuid.UUID `db:"run_id"`
	Ticker string    `db:"ticker"`

	Situation string `db:"situation"`
	Decision  string `db:"decision"`
	Outcome   string `db:"outcome"`
	Lesson    string `db:"lesson"`

	Embedding           pgvector.Vector `db:"embedding"`
	EmbeddingModel      string          `db:"embedding_model"`
	EmbeddingDimensions int             `db:"embedding_dimensions"`

	// Similarity is populated on retrieval, not stored.
	Similarity float64 `db:"similarity"`

	CreatedAt time.Time `db:"created_at"`
}
