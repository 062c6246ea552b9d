package analysis

// Phase is one stage of the fixed workflow ordering. Phases only ever
// advance; a state never moves backwards.
type Phase string

const (
	PhaseAnalysis       Phase = "analysis"
	PhaseResearchDebate Phase = "research_debate"
	PhaseTradeProposal  Phase = "trade_proposal"
	PhaseRiskDebate     Phase = "risk_debate"
	PhaseFinalDecision  Phase = "final_decision"
	PhaseDone           Phase = "done"
)

var phaseOrder = map[Phase]int{
	PhaseAnalysis:       0,
	PhaseResearchDebate: 1,
	PhaseTradeProposal:  2,
	PhaseRiskDebate:     3,
	PhaseFinalDecision:  4,
	PhaseDone:           5,
}

// Index returns the position of the phase in the workflow ordering,
// or -1 for an unknown phase.
func (p Phase) Index() int {
	idx, ok := phaseOrder[p]
	if !ok {
		return -1
	}
	return idx
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// Valid reports whether the phase is a known workflow stage.
func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}
