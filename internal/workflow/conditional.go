package workflow

import "consilium/internal/domain/analysis"

// Step is the decision of the conditional logic for a debate.
type Step int

const (
	// StepContinueDebate schedules the next speaker in the rotation.
	StepContinueDebate Step = iota

	// StepAdvancePhase closes the debate and moves the workflow on.
	StepAdvancePhase
)

// ConvergenceFunc is an optional early-termination heuristic, consulted
// only at round boundaries. The round cap is the only guaranteed
// terminator; nil means rounds run to the cap.
type ConvergenceFunc func(d *analysis.Debate) bool

// ConditionalLogic decides whether a debate continues. It is pure:
// identical debate state and configuration always produce the identical
// decision. No randomness, no clock.
type ConditionalLogic struct {
	Convergence ConvergenceFunc
}

// NextStep returns StepAdvancePhase once the completed-round counter
// reaches maxRounds (maxRounds <= 0 skips the debate entirely), or when
// the convergence heuristic fires at a round boundary.
func (c *ConditionalLogic) NextStep(d *analysis.Debate, maxRounds int) Step {
	if d.Rounds() >= maxRounds {
		return StepAdvancePhase
	}

	atRoundBoundary := d.Len() > 0 && d.Len()%len(d.Rotation()) == 0
	if c.Convergence != nil && atRoundBoundary && c.Convergence(d) {
		return StepAdvancePhase
	}

	return StepContinueDebate
}
