package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
	"consilium/pkg/errors"
)

// RiskDebator argues one stance (aggressive, conservative, neutral) in
// the risk committee debate over the trader's proposal.
type RiskDebator struct {
	speaker  string
	role     Role
	provider ai.Provider
	model    string
	prompts  *PromptRegistry
}

var _ Agent = (*RiskDebator)(nil)

// Role returns the debator role.
func (d *RiskDebator) Role() Role { return d.role }

// Act produces the next risk-debate turn.
func (d *RiskDebator) Act(ctx context.Context, view analysis.View) (*Delta, error) {
	if view.Proposal == nil {
		return nil, errors.Wrap(errors.ErrPhasePrecondition, "risk debate requires a trade proposal")
	}

	prompt, err := d.prompts.Render(string(d.role), map[string]interface{}{
		"Ticker":            view.Ticker,
		"ProposalAction":    view.Proposal.Action.String(),
		"ProposalRationale": view.Proposal.Rationale,
		"Transcript":        view.Risk.Transcript,
	})
	if err != nil {
		return nil, err
	}

	resp, err := complete(ctx, d.provider, d.model, prompt)
	if err != nil {
		return nil, err
	}

	return &Delta{
		Turn:  &TurnDelta{Speaker: d.speaker, Statement: resp.Content},
		Usage: resp.Usage,
	}, nil
}
