package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
)

// Researcher argues one side of the research debate. Bull and bear
// differ only in speaker identity and prompt.
type Researcher struct {
	speaker  string
	role     Role
	provider ai.Provider
	model    string
	prompts  *PromptRegistry
	memory   *memory.Service
	memoryK  int
}

var _ Agent = (*Researcher)(nil)

// Role returns the researcher role.
func (r *Researcher) Role() Role { return r.role }

// Act produces the next turn for this side of the debate.
func (r *Researcher) Act(ctx context.Context, view analysis.View) (*Delta, error) {
	lessons := recallLessons(ctx, r.memory, situationFingerprint(view), r.memoryK)

	prompt, err := r.prompts.Render(string(r.role), map[string]interface{}{
		"Ticker":     view.Ticker,
		"Reports":    renderReports(view.Reports),
		"Transcript": view.Research.Transcript,
		"Lessons":    lessons,
	})
	if err != nil {
		return nil, err
	}

	resp, err := complete(ctx, r.provider, r.model, prompt)
	if err != nil {
		return nil, err
	}

	return &Delta{
		Turn:  &TurnDelta{Speaker: r.speaker, Statement: resp.Content},
		Usage: resp.Usage,
	}, nil
}
