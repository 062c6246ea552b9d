package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/pkg/errors"
)

func newTestState() *State {
	return NewState("AAPL", time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC))
}

func TestState_ReportSlotsAreWriteOnce(t *testing.T) {
	s := newTestState()

	require.NoError(t, s.SetReport(AnalystMarket, "uptrend"))

	err := s.SetReport(AnalystMarket, "second write")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReportExists))

	text, ok := s.Report(AnalystMarket)
	require.True(t, ok)
	assert.Equal(t, "uptrend", text)
}

func TestState_DistinctSlotsAreIndependent(t *testing.T) {
	s := newTestState()

	require.NoError(t, s.SetReport(AnalystMarket, "m"))
	require.NoError(t, s.SetReport(AnalystNews, "n"))
	require.NoError(t, s.SetReport(AnalystSocial, "s"))
	require.NoError(t, s.SetReport(AnalystFundamentals, "f"))

	assert.Len(t, s.Reports(), 4)
}

func TestState_PhaseIsMonotonic(t *testing.T) {
	s := newTestState()
	assert.Equal(t, PhaseAnalysis, s.Phase())

	require.NoError(t, s.Advance(PhaseResearchDebate))
	require.NoError(t, s.Advance(PhaseTradeProposal))

	err := s.Advance(PhaseResearchDebate)
	require.Error(t, err)
	assert.Equal(t, PhaseTradeProposal, s.Phase())

	err = s.Advance(PhaseTradeProposal)
	require.Error(t, err)
}

func TestState_ProposalIsWriteOnce(t *testing.T) {
	s := newTestState()

	require.NoError(t, s.SetProposal(Proposal{Action: ActionBuy, Rationale: "momentum"}))

	err := s.SetProposal(Proposal{Action: ActionSell})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	p := s.Proposal()
	require.NotNil(t, p)
	assert.Equal(t, ActionBuy, p.Action)
}

func TestState_TerminalDecisionFreezesState(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.SetDecision(Decision{Action: ActionHold, Confidence: 0.5}))

	assert.True(t, s.Completed())
	assert.True(t, errors.Is(s.SetReport(AnalystMarket, "late"), errors.ErrStateFinal))
	assert.True(t, errors.Is(s.SetProposal(Proposal{Action: ActionBuy}), errors.ErrStateFinal))
	assert.True(t, errors.Is(s.SetDecision(Decision{Action: ActionBuy}), errors.ErrStateFinal))
}

func TestState_DecisionRejectsInvalidAction(t *testing.T) {
	s := newTestState()

	err := s.SetDecision(Decision{Action: Action("MAYBE")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.False(t, s.Completed())
}

func TestState_SnapshotIsIsolated(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.SetReport(AnalystMarket, "before"))
	require.NoError(t, s.Research().Append(SpeakerBull, "thesis"))

	view := s.Snapshot()

	// Later writes must not show up in the captured view.
	require.NoError(t, s.SetReport(AnalystNews, "after"))
	require.NoError(t, s.Research().Append(SpeakerBear, "rebuttal"))

	assert.Len(t, view.Reports, 1)
	assert.Len(t, view.Research.Turns, 1)

	// Mutating the view must not leak back into the state.
	view.Reports[AnalystMarket] = "tampered"
	text, _ := s.Report(AnalystMarket)
	assert.Equal(t, "before", text)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"BUY", ActionBuy, true},
		{"buy", ActionBuy, true},
		{"Sell", ActionSell, true},
		{"HOLD", ActionHold, true},
		{"LONG", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAction(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
