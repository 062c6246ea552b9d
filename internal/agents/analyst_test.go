package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/internal/adapters/feeds"
	"consilium/internal/domain/analysis"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

type stubNews struct{ docs []feeds.Document }

func (s *stubNews) FetchNews(_ context.Context, _ string, _ time.Time) ([]feeds.Document, error) {
	return s.docs, nil
}

func TestAnalyst_ProducesReportDelta(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"headline risk is limited"}}
	a := &Analyst{
		kind:     analysis.AnalystNews,
		role:     RoleNewsAnalyst,
		provider: provider,
		model:    "test-model",
		prompts:  mustPrompts(t),
		news:     &stubNews{docs: []feeds.Document{{Title: "earnings beat", Source: "wire"}}},
		log:      logger.Get(),
	}

	view := analysis.View{Ticker: "AAPL", Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)}

	delta, err := a.Act(context.Background(), view)
	require.NoError(t, err)
	require.NotNil(t, delta.Report)
	assert.Equal(t, analysis.AnalystNews, delta.Report.Kind)
	assert.Equal(t, "headline risk is limited", delta.Report.Text)
}

func TestAnalyst_ReasonsWithoutDataProviders(t *testing.T) {
	view := analysis.View{Ticker: "AAPL", Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)}

	cases := []struct {
		kind analysis.AnalystKind
		role Role
	}{
		{analysis.AnalystMarket, RoleMarketAnalyst},
		{analysis.AnalystFundamentals, RoleFundamentalsAnalyst},
		{analysis.AnalystNews, RoleNewsAnalyst},
		{analysis.AnalystSocial, RoleSocialAnalyst},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			provider := &scriptedProvider{responses: []string{"reasoning from priors"}}
			a := &Analyst{
				kind:     tc.kind,
				role:     tc.role,
				provider: provider,
				model:    "test-model",
				prompts:  mustPrompts(t),
				log:      logger.Get(),
			}

			delta, err := a.Act(context.Background(), view)
			require.NoError(t, err)
			require.NotNil(t, delta.Report)
			assert.Equal(t, tc.kind, delta.Report.Kind)
		})
	}
}

func TestBuildRegistry_AnalystsSurviveNilProviders(t *testing.T) {
	reg, err := BuildRegistry(Deps{Provider: &scriptedProvider{responses: []string{"no data, staying cautious"}}})
	require.NoError(t, err)

	view := analysis.View{Ticker: "AAPL", Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)}

	for _, role := range []Role{RoleMarketAnalyst, RoleFundamentalsAnalyst, RoleNewsAnalyst, RoleSocialAnalyst} {
		agent, ok := reg.Get(role)
		require.True(t, ok, string(role))

		delta, err := agent.Act(context.Background(), view)
		require.NoError(t, err, string(role))
		require.NotNil(t, delta.Report, string(role))
	}
}

func TestAnalyst_RefusesFilledSlot(t *testing.T) {
	a := &Analyst{
		kind:    analysis.AnalystNews,
		role:    RoleNewsAnalyst,
		prompts: mustPrompts(t),
		log:     logger.Get(),
	}

	view := analysis.View{
		Ticker:  "AAPL",
		Reports: map[analysis.AnalystKind]string{analysis.AnalystNews: "already written"},
	}

	_, err := a.Act(context.Background(), view)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReportExists))
}

func TestRiskDebator_RequiresProposal(t *testing.T) {
	d := &RiskDebator{
		speaker: analysis.SpeakerAggressive,
		role:    RoleAggressiveDebator,
		prompts: mustPrompts(t),
	}

	_, err := d.Act(context.Background(), analysis.View{Ticker: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPhasePrecondition))
}

func TestResearcher_EmitsTurnForItsSpeaker(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"the upside case holds"}}
	r := &Researcher{
		speaker:  analysis.SpeakerBull,
		role:     RoleBullResearcher,
		provider: provider,
		model:    "test-model",
		prompts:  mustPrompts(t),
	}

	view := analysis.View{
		Ticker:  "AAPL",
		Reports: map[analysis.AnalystKind]string{analysis.AnalystMarket: "trend intact"},
	}

	delta, err := r.Act(context.Background(), view)
	require.NoError(t, err)
	require.NotNil(t, delta.Turn)
	assert.Equal(t, analysis.SpeakerBull, delta.Turn.Speaker)
	assert.Equal(t, "the upside case holds", delta.Turn.Statement)
}

func TestBuildRegistry_RegistersFullRoster(t *testing.T) {
	reg, err := BuildRegistry(Deps{Provider: &scriptedProvider{responses: []string{"HOLD"}}})
	require.NoError(t, err)

	roles := []Role{
		RoleMarketAnalyst, RoleNewsAnalyst, RoleSocialAnalyst, RoleFundamentalsAnalyst,
		RoleBullResearcher, RoleBearResearcher,
		RoleAggressiveDebator, RoleConservativeDebator, RoleNeutralDebator,
		RoleTrader, RolePortfolioManager,
	}
	for _, role := range roles {
		_, ok := reg.Get(role)
		assert.True(t, ok, string(role))
	}
	assert.Len(t, reg.List(), len(roles))
}

func TestBuildRegistry_RequiresProvider(t *testing.T) {
	_, err := BuildRegistry(Deps{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
