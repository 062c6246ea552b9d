package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
)

// Agent is the unit of work the workflow engine dispatches. Agents get
// an immutable snapshot of the run state and return a delta; they never
// mutate state and never retain the view past the invocation.
type Agent interface {
	Role() Role
	Act(ctx context.Context, view analysis.View) (*Delta, error)
}

// Delta is the single contribution of one agent invocation. Exactly one
// of the payload fields is set, matching the agent's role.
type Delta struct {
	Report   *ReportDelta
	Turn     *TurnDelta
	Proposal *analysis.Proposal
	Decision *analysis.Decision

	// Usage carries provider token telemetry for metrics.
	Usage ai.Usage
}

// ReportDelta fills one write-once analyst report slot.
type ReportDelta struct {
	Kind analysis.AnalystKind
	Text string
}

// TurnDelta appends one debate turn.
type TurnDelta struct {
	Speaker   string
	Statement string
}
