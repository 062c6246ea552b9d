package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
	"consilium/internal/signal"
	"consilium/pkg/errors"
)

// estimatedConfidence is used when the terminal text carries no explicit
// confidence value.
const estimatedConfidence = 0.5

// PortfolioManager issues the terminal decision. It adopts the trader's
// action unless the risk committee's consensus contradicts it, in which
// case it downgrades toward HOLD; direction is never reversed outright.
type PortfolioManager struct {
	provider  ai.Provider
	model     string
	prompts   *PromptRegistry
	extractor *signal.Extractor
}

var _ Agent = (*PortfolioManager)(nil)

// Role returns the portfolio manager role.
func (m *PortfolioManager) Role() Role { return RolePortfolioManager }

// Act produces the decision delta. An unparsable terminal response is
// re-asked once; if it still cannot be parsed the failure surfaces to
// the engine, which applies the HOLD safe default.
func (m *PortfolioManager) Act(ctx context.Context, view analysis.View) (*Delta, error) {
	if view.Proposal == nil {
		return nil, errors.Wrap(errors.ErrPhasePrecondition, "final decision requires a trade proposal")
	}

	prompt, err := m.prompts.Render(string(RolePortfolioManager), map[string]interface{}{
		"Ticker":            view.Ticker,
		"ProposalAction":    view.Proposal.Action.String(),
		"ProposalRationale": view.Proposal.Rationale,
		"Transcript":        view.Risk.Transcript,
	})
	if err != nil {
		return nil, err
	}

	resp, err := complete(ctx, m.provider, m.model, prompt)
	if err != nil {
		return nil, err
	}
	usage := resp.Usage

	sig, err := m.extractor.Extract(resp.Content)
	if errors.Is(err, errors.ErrParseFailure) {
		resp, err = complete(ctx, m.provider, m.model, prompt,
			ai.Message{Role: ai.RoleAssistant, Content: resp.Content},
			ai.Message{Role: ai.RoleUser, Content: clarifyPrompt},
		)
		if err != nil {
			return nil, err
		}
		usage.PromptTokens += resp.Usage.PromptTokens
		usage.CompletionTokens += resp.Usage.CompletionTokens
		usage.TotalTokens += resp.Usage.TotalTokens

		sig, err = m.extractor.Extract(resp.Content)
	}
	if err != nil {
		return nil, errors.Wrap(err, "portfolio decision")
	}

	action := m.reconcile(sig.Action, view)

	confidence := estimatedConfidence
	if sig.HasConfidence {
		confidence = sig.Confidence
	}

	return &Delta{
		Decision: &analysis.Decision{
			Action:     action,
			Confidence: confidence,
			Rationale:  resp.Content,
		},
		Usage: usage,
	}, nil
}

// reconcile applies the conservative tie-break: the manager's extracted
// action may never reverse the trader's direction, and a contradicting
// risk consensus downgrades the call to HOLD.
func (m *PortfolioManager) reconcile(extracted analysis.Action, view analysis.View) analysis.Action {
	proposed := view.Proposal.Action

	if opposes(extracted, proposed) {
		return analysis.ActionHold
	}

	consensus := m.riskConsensus(view.Risk)
	if opposes(consensus, proposed) && extracted == proposed {
		return analysis.ActionHold
	}

	return extracted
}

// riskConsensus takes the majority stance of each debator's final-round
// statement. Unscoreable statements count as HOLD.
func (m *PortfolioManager) riskConsensus(risk analysis.DebateView) analysis.Action {
	latest := map[string]string{}
	for _, turn := range risk.Turns {
		latest[turn.Speaker] = turn.Statement
	}

	votes := map[analysis.Action]int{}
	for _, statement := range latest {
		votes[m.extractor.Stance(statement)]++
	}

	majority := len(latest)/2 + 1
	for _, a := range []analysis.Action{analysis.ActionBuy, analysis.ActionSell, analysis.ActionHold} {
		if votes[a] >= majority && len(latest) > 0 {
			return a
		}
	}
	return analysis.ActionHold
}

func opposes(a, b analysis.Action) bool {
	return (a == analysis.ActionBuy && b == analysis.ActionSell) ||
		(a == analysis.ActionSell && b == analysis.ActionBuy)
}
