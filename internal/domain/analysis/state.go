package analysis

import (
	"time"

	"github.com/google/uuid"

	"consilium/pkg/errors"
)

// Research debate and risk debate speaker rotations. Risk order follows
// the original committee: the aggressive stance opens, conservative
// rebuts, neutral arbitrates.
var (
	ResearchRotation = []string{SpeakerBull, SpeakerBear}
	RiskRotation     = []string{SpeakerAggressive, SpeakerConservative, SpeakerNeutral}
)

const (
	SpeakerBull         = "bull"
	SpeakerBear         = "bear"
	SpeakerAggressive   = "aggressive"
	SpeakerConservative = "conservative"
	SpeakerNeutral      = "neutral"
)

// State is the single mutable record threaded through one workflow run.
// It is owned exclusively by one engine execution and is not safe for
// concurrent mutation; all writes go through the engine which applies
// agent deltas synchronously.
type State struct {
	runID  uuid.UUID
	ticker string
	date   time.Time

	phase    Phase
	reports  map[AnalystKind]string
	research *Debate
	risk     *Debate
	proposal *Proposal
	decision *Decision

	createdAt time.Time
}

// NewState creates the state for one (ticker, date) run.
func NewState(ticker string, date time.Time) *State {
	return &State{
		runID:     uuid.New(),
		ticker:    ticker,
		date:      date,
		phase:     PhaseAnalysis,
		reports:   make(map[AnalystKind]string),
		research:  NewDebate(ResearchRotation...),
		risk:      NewDebate(RiskRotation...),
		createdAt: time.Now(),
	}
}

func (s *State) RunID() uuid.UUID { return s.runID }
func (s *State) Ticker() string   { return s.ticker }
func (s *State) Date() time.Time  { return s.date }
func (s *State) Phase() Phase     { return s.phase }

// Research returns the research debate. Mutation is reserved for the
// engine; agents only ever see DebateView snapshots.
func (s *State) Research() *Debate { return s.research }

// Risk returns the risk debate.
func (s *State) Risk() *Debate { return s.risk }

// Completed reports whether the terminal decision has been set.
func (s *State) Completed() bool { return s.decision != nil }

// Advance moves the state to the next phase. Regression and skipping
// are rejected; the phase marker is strictly monotonic.
func (s *State) Advance(next Phase) error {
	if s.Completed() && next != PhaseDone {
		return errors.ErrStateFinal
	}
	if !next.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "unknown phase %q", next)
	}
	if next.Index() <= s.phase.Index() {
		return errors.Wrapf(errors.ErrInvalidInput,
			"phase %s cannot follow %s", next, s.phase)
	}
	s.phase = next
	return nil
}

// SetReport fills a write-once analyst report slot.
func (s *State) SetReport(kind AnalystKind, text string) error {
	if s.Completed() {
		return errors.ErrStateFinal
	}
	if !kind.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "unknown analyst kind %q", kind)
	}
	if _, ok := s.reports[kind]; ok {
		return errors.Wrapf(errors.ErrReportExists, "analyst %s", kind)
	}
	s.reports[kind] = text
	return nil
}

// Report returns the report for one analyst kind.
func (s *State) Report(kind AnalystKind) (string, bool) {
	text, ok := s.reports[kind]
	return text, ok
}

// Reports returns a copy of all filled report slots.
func (s *State) Reports() map[AnalystKind]string {
	out := make(map[AnalystKind]string, len(s.reports))
	for k, v := range s.reports {
		out[k] = v
	}
	return out
}

// SetProposal records the trader's draft decision, write-once.
func (s *State) SetProposal(p Proposal) error {
	if s.Completed() {
		return errors.ErrStateFinal
	}
	if s.proposal != nil {
		return errors.Wrap(errors.ErrAlreadyExists, "trade proposal")
	}
	if !p.Action.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "proposal action %q", p.Action)
	}
	cp := p
	s.proposal = &cp
	return nil
}

// Proposal returns a copy of the trader's draft, nil if not yet set.
func (s *State) Proposal() *Proposal {
	if s.proposal == nil {
		return nil
	}
	cp := *s.proposal
	return &cp
}

// SetDecision records the terminal decision. After this the state is
// immutable; every setter fails with ErrStateFinal.
func (s *State) SetDecision(d Decision) error {
	if s.decision != nil {
		return errors.ErrStateFinal
	}
	if !d.Action.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "decision action %q", d.Action)
	}
	cp := d
	s.decision = &cp
	return nil
}

// Decision returns a copy of the terminal decision, nil until set.
func (s *State) Decision() *Decision {
	if s.decision == nil {
		return nil
	}
	cp := *s.decision
	return &cp
}

// View is the immutable snapshot handed to agents. Everything in it is
// a copy; retaining a View past the invocation cannot observe or affect
// later state.
type View struct {
	RunID    uuid.UUID
	Ticker   string
	Date     time.Time
	Phase    Phase
	Reports  map[AnalystKind]string
	Research DebateView
	Risk     DebateView
	Proposal *Proposal
}

// Snapshot captures the current state as a View.
func (s *State) Snapshot() View {
	return View{
		RunID:    s.runID,
		Ticker:   s.ticker,
		Date:     s.date,
		Phase:    s.phase,
		Reports:  s.Reports(),
		Research: s.research.view(),
		Risk:     s.risk.view(),
		Proposal: s.Proposal(),
	}
}
