package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/internal/agents"
	"consilium/internal/domain/analysis"
	"consilium/internal/workflow"
	"consilium/pkg/errors"
)

type stubAgent struct {
	role agents.Role
	act  func(ctx context.Context, view analysis.View) (*agents.Delta, error)
}

func (a *stubAgent) Role() agents.Role { return a.role }

func (a *stubAgent) Act(ctx context.Context, view analysis.View) (*agents.Delta, error) {
	return a.act(ctx, view)
}

func reportAgent(role agents.Role, kind analysis.AnalystKind) *stubAgent {
	return &stubAgent{role: role, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		return &agents.Delta{Report: &agents.ReportDelta{Kind: kind, Text: string(kind) + " looks stable"}}, nil
	}}
}

func turnAgent(role agents.Role, speaker, statement string) *stubAgent {
	return &stubAgent{role: role, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		return &agents.Delta{Turn: &agents.TurnDelta{Speaker: speaker, Statement: statement}}, nil
	}}
}

// stubRegistry builds a full roster of deterministic agents, with
// per-role overrides for failure scenarios.
func stubRegistry(overrides map[agents.Role]agents.Agent) *agents.Registry {
	reg := agents.NewRegistry()

	defaults := []agents.Agent{
		reportAgent(agents.RoleMarketAnalyst, analysis.AnalystMarket),
		reportAgent(agents.RoleNewsAnalyst, analysis.AnalystNews),
		reportAgent(agents.RoleSocialAnalyst, analysis.AnalystSocial),
		reportAgent(agents.RoleFundamentalsAnalyst, analysis.AnalystFundamentals),
		turnAgent(agents.RoleBullResearcher, analysis.SpeakerBull, "upside ahead"),
		turnAgent(agents.RoleBearResearcher, analysis.SpeakerBear, "downside risk"),
		turnAgent(agents.RoleAggressiveDebator, analysis.SpeakerAggressive, "size up, upside"),
		turnAgent(agents.RoleConservativeDebator, analysis.SpeakerConservative, "trim exposure"),
		turnAgent(agents.RoleNeutralDebator, analysis.SpeakerNeutral, "balanced either way"),
		&stubAgent{role: agents.RoleTrader, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
			return &agents.Delta{Proposal: &analysis.Proposal{Action: analysis.ActionBuy, Rationale: "momentum"}}, nil
		}},
		&stubAgent{role: agents.RolePortfolioManager, act: func(_ context.Context, view analysis.View) (*agents.Delta, error) {
			return &agents.Delta{Decision: &analysis.Decision{
				Action:     view.Proposal.Action,
				Confidence: 0.8,
				Rationale:  "adopting the trader call",
			}}, nil
		}},
	}

	for _, ag := range defaults {
		if override, ok := overrides[ag.Role()]; ok {
			reg.Register(ag.Role(), override)
			continue
		}
		reg.Register(ag.Role(), ag)
	}
	return reg
}

func testConfig() workflow.Config {
	return workflow.Config{
		MaxDebateRounds: 1,
		MaxRiskRounds:   1,
		RetryLimit:      3,
		RetryBackoff:    time.Millisecond,
	}
}

func runDate() time.Time {
	return time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
}

func TestEngine_Run_HappyPath(t *testing.T) {
	engine := workflow.New(stubRegistry(nil), testConfig())
	defer engine.Close()

	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)

	assert.Equal(t, analysis.PhaseDone, state.Phase())
	assert.True(t, state.Completed())
	assert.Len(t, state.Reports(), 4)

	research := state.Research().Turns()
	require.Len(t, research, 2)
	assert.Equal(t, analysis.SpeakerBull, research[0].Speaker)
	assert.Equal(t, analysis.SpeakerBear, research[1].Speaker)

	assert.Equal(t, 3, state.Risk().Len())

	require.NotNil(t, state.Proposal())
	decision := state.Decision()
	require.NotNil(t, decision)
	assert.Equal(t, analysis.ActionBuy, decision.Action)
	assert.Empty(t, decision.Caveat)
}

func TestEngine_Run_IsDeterministic(t *testing.T) {
	engine := workflow.New(stubRegistry(nil), testConfig())
	defer engine.Close()

	first, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)

	assert.Equal(t, first.Decision().Action, second.Decision().Action)
	assert.Equal(t, first.Research().Transcript(), second.Research().Transcript())
	assert.NotEqual(t, first.RunID(), second.RunID())
}

func TestEngine_Run_ZeroRoundsProduceNoTurns(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDebateRounds = 0
	cfg.MaxRiskRounds = 0

	engine := workflow.New(stubRegistry(nil), cfg)
	defer engine.Close()

	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)

	assert.Equal(t, 0, state.Research().Len())
	assert.Equal(t, 0, state.Risk().Len())
	assert.True(t, state.Completed())
}

func TestEngine_Run_RetriesTransientAgentFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	flaky := &stubAgent{role: agents.RoleMarketAnalyst, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts <= 2 {
			return nil, errors.Wrap(errors.ErrProviderTransient, "upstream 503")
		}
		return &agents.Delta{Report: &agents.ReportDelta{Kind: analysis.AnalystMarket, Text: "recovered"}}, nil
	}}

	engine := workflow.New(stubRegistry(map[agents.Role]agents.Agent{
		agents.RoleMarketAnalyst: flaky,
	}), testConfig())
	defer engine.Close()

	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	text, ok := state.Report(analysis.AnalystMarket)
	require.True(t, ok)
	assert.Equal(t, "recovered", text)
}

func TestEngine_Run_ExhaustedRetriesFailTheRun(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	broken := &stubAgent{role: agents.RoleNewsAnalyst, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return nil, errors.Wrap(errors.ErrProviderTransient, "upstream down")
	}}

	cfg := testConfig()
	cfg.RetryLimit = 2

	engine := workflow.New(stubRegistry(map[agents.Role]agents.Agent{
		agents.RoleNewsAnalyst: broken,
	}), cfg)
	defer engine.Close()

	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.Error(t, err)
	assert.Equal(t, 2, attempts)

	var failure *workflow.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, analysis.PhaseAnalysis, failure.Phase)

	// Partial state survives: the healthy analysts still reported.
	require.NotNil(t, state)
	_, ok := state.Report(analysis.AnalystMarket)
	assert.True(t, ok)
	_, ok = state.Report(analysis.AnalystNews)
	assert.False(t, ok)
	assert.False(t, state.Completed())
}

func TestEngine_Run_ParseFailureIsNotRetried(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	unparsable := &stubAgent{role: agents.RoleTrader, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return nil, errors.Wrap(errors.ErrParseFailure, "no action token")
	}}

	engine := workflow.New(stubRegistry(map[agents.Role]agents.Agent{
		agents.RoleTrader: unparsable,
	}), testConfig())
	defer engine.Close()

	_, err := engine.Run(context.Background(), "AAPL", runDate())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestEngine_Run_TerminalParseFailureDefaultsToHold(t *testing.T) {
	mute := &stubAgent{role: agents.RolePortfolioManager, act: func(_ context.Context, _ analysis.View) (*agents.Delta, error) {
		return nil, errors.Wrap(errors.ErrParseFailure, "still no action token")
	}}

	engine := workflow.New(stubRegistry(map[agents.Role]agents.Agent{
		agents.RolePortfolioManager: mute,
	}), testConfig())
	defer engine.Close()

	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)

	decision := state.Decision()
	require.NotNil(t, decision)
	assert.Equal(t, analysis.ActionHold, decision.Action)
	assert.NotEmpty(t, decision.Caveat)
	assert.Zero(t, decision.Confidence)
	assert.Equal(t, analysis.PhaseDone, state.Phase())
}

func TestEngine_Run_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := workflow.New(stubRegistry(nil), testConfig())
	defer engine.Close()

	state, err := engine.Run(ctx, "AAPL", runDate())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.False(t, state.Completed())
}

func TestEngine_Run_EmitsProgressEvents(t *testing.T) {
	sink := &recordingSink{}

	engine := workflow.New(stubRegistry(nil), testConfig(), sink)
	state, err := engine.Run(context.Background(), "AAPL", runDate())
	require.NoError(t, err)
	engine.Close()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		for _, ev := range sink.events {
			if ev.Type == workflow.EventCompleted {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	var phases, turns int
	for _, ev := range sink.events {
		assert.Equal(t, state.RunID(), ev.RunID)
		assert.Equal(t, "AAPL", ev.Ticker)
		switch ev.Type {
		case workflow.EventPhase:
			phases++
		case workflow.EventTurn:
			turns++
		}
	}

	assert.Equal(t, 6, phases)
	assert.Equal(t, 5, turns) // 2 research + 3 risk
}
