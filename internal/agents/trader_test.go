package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/internal/domain/analysis"
	"consilium/internal/signal"
	"consilium/pkg/errors"
)

func newTrader(t *testing.T, responses ...string) (*Trader, *scriptedProvider) {
	t.Helper()
	provider := &scriptedProvider{responses: responses}
	return &Trader{
		provider:  provider,
		model:     "test-model",
		prompts:   mustPrompts(t),
		extractor: signal.NewExtractor(),
	}, provider
}

func traderView() analysis.View {
	return analysis.View{
		Ticker: "AAPL",
		Date:   time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		Phase:  analysis.PhaseTradeProposal,
		Reports: map[analysis.AnalystKind]string{
			analysis.AnalystMarket: "trend intact",
			analysis.AnalystNews:   "no adverse headlines",
		},
		Research: analysis.DebateView{Transcript: "bull: up\nbear: down\n"},
	}
}

func TestTrader_ProposesExtractedAction(t *testing.T) {
	trader, _ := newTrader(t, "Weighing both sides.\nFINAL TRANSACTION PROPOSAL: SELL")

	delta, err := trader.Act(context.Background(), traderView())
	require.NoError(t, err)
	require.NotNil(t, delta.Proposal)
	assert.Equal(t, analysis.ActionSell, delta.Proposal.Action)
	assert.Contains(t, delta.Proposal.Rationale, "Weighing both sides")
}

func TestTrader_RequiresAnalystReports(t *testing.T) {
	trader, _ := newTrader(t, "FINAL TRANSACTION PROPOSAL: BUY")

	_, err := trader.Act(context.Background(), analysis.View{Ticker: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPhasePrecondition))
}

func TestTrader_ClarifiesUnparsableOutputOnce(t *testing.T) {
	trader, provider := newTrader(t,
		"the evidence cuts in several directions",
		"FINAL TRANSACTION PROPOSAL: BUY",
	)

	delta, err := trader.Act(context.Background(), traderView())
	require.NoError(t, err)
	assert.Equal(t, analysis.ActionBuy, delta.Proposal.Action)
	assert.Equal(t, 2, provider.callCount())
}

func TestTrader_PersistentParseFailureSurfaces(t *testing.T) {
	trader, provider := newTrader(t, "the evidence cuts in several directions")

	_, err := trader.Act(context.Background(), traderView())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
	assert.Equal(t, 2, provider.callCount())
}
