package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
	"consilium/internal/signal"
	"consilium/pkg/errors"
)

// Trader drafts the trade proposal after the research debate concludes.
type Trader struct {
	provider  ai.Provider
	model     string
	prompts   *PromptRegistry
	extractor *signal.Extractor
	memory    *memory.Service
	memoryK   int
}

var _ Agent = (*Trader)(nil)

// Role returns the trader role.
func (t *Trader) Role() Role { return RoleTrader }

// Act produces the proposal delta. An unparsable response is re-asked
// once with a clarifying prompt before surfacing as a failure.
func (t *Trader) Act(ctx context.Context, view analysis.View) (*Delta, error) {
	if len(view.Reports) == 0 {
		return nil, errors.Wrap(errors.ErrPhasePrecondition, "trader requires analyst reports")
	}

	lessons := recallLessons(ctx, t.memory, situationFingerprint(view), t.memoryK)

	prompt, err := t.prompts.Render(string(RoleTrader), map[string]interface{}{
		"Ticker":     view.Ticker,
		"Reports":    renderReports(view.Reports),
		"Transcript": view.Research.Transcript,
		"Lessons":    lessons,
	})
	if err != nil {
		return nil, err
	}

	resp, err := complete(ctx, t.provider, t.model, prompt)
	if err != nil {
		return nil, err
	}
	usage := resp.Usage

	sig, err := t.extractor.Extract(resp.Content)
	if errors.Is(err, errors.ErrParseFailure) {
		resp, err = complete(ctx, t.provider, t.model, prompt,
			ai.Message{Role: ai.RoleAssistant, Content: resp.Content},
			ai.Message{Role: ai.RoleUser, Content: clarifyPrompt},
		)
		if err != nil {
			return nil, err
		}
		usage.PromptTokens += resp.Usage.PromptTokens
		usage.CompletionTokens += resp.Usage.CompletionTokens
		usage.TotalTokens += resp.Usage.TotalTokens

		sig, err = t.extractor.Extract(resp.Content)
	}
	if err != nil {
		return nil, errors.Wrap(err, "trader proposal")
	}

	return &Delta{
		Proposal: &analysis.Proposal{Action: sig.Action, Rationale: resp.Content},
		Usage:    usage,
	}, nil
}
