package workflow

import (
	"context"
	"fmt"
	"time"

	"consilium/internal/agents"
	"consilium/internal/domain/analysis"
	"consilium/internal/metrics"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// Config caps and shapes one workflow run.
type Config struct {
	MaxDebateRounds int
	MaxRiskRounds   int
	Analysts        []analysis.AnalystKind
	RetryLimit      int
	RetryBackoff    time.Duration

	// Convergence optionally ends debates early at round boundaries.
	Convergence ConvergenceFunc
}

// Failure is the run-level error: which phase failed and why. The
// partial state is returned alongside it for diagnostics.
type Failure struct {
	Phase analysis.Phase
	Err   error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("workflow failed in phase %s: %v", f.Phase, f.Err)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error { return f.Err }

// Engine drives the decision workflow: analyst fan-out, bounded
// debates, trade proposal and final decision. It exclusively owns the
// AnalysisState for the duration of one run; agents only ever see
// immutable snapshots and return deltas applied here.
type Engine struct {
	registry *agents.Registry
	logic    *ConditionalLogic
	cfg      Config
	notifier *Notifier
	log      *logger.Logger
}

// New creates an engine. Sinks receive progress events; none of them
// can block the run.
func New(registry *agents.Registry, cfg Config, sinks ...Sink) *Engine {
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if len(cfg.Analysts) == 0 {
		cfg.Analysts = []analysis.AnalystKind{
			analysis.AnalystMarket,
			analysis.AnalystNews,
			analysis.AnalystSocial,
			analysis.AnalystFundamentals,
		}
	}

	return &Engine{
		registry: registry,
		logic:    &ConditionalLogic{Convergence: cfg.Convergence},
		cfg:      cfg,
		notifier: NewNotifier(sinks...),
		log:      logger.Get().With("component", "workflow_engine"),
	}
}

// Close releases the event notifier.
func (e *Engine) Close() {
	e.notifier.Close()
}

// Run executes the workflow for one (ticker, date). On failure the
// partial state is returned together with a *Failure describing the
// failing phase.
func (e *Engine) Run(ctx context.Context, ticker string, date time.Time) (*analysis.State, error) {
	state := analysis.NewState(ticker, date)
	log := e.log.With("run_id", state.RunID(), "ticker", ticker)
	log.Infow("run started", "date", date.Format("2006-01-02"))

	metrics.RunsStarted.Inc()

	if err := e.runPhases(ctx, state); err != nil {
		status := "failed"
		if errors.Is(err, errors.ErrCancelled) {
			status = "cancelled"
		}
		metrics.RunsFinished.WithLabelValues(status).Inc()

		e.emit(state, ProgressEvent{Type: EventFailed, Detail: err.Error()})
		log.Errorw("run failed", "phase", state.Phase(), "error", err)
		return state, err
	}

	metrics.RunsFinished.WithLabelValues("completed").Inc()
	e.emit(state, ProgressEvent{Type: EventCompleted, Detail: string(state.Decision().Action)})
	log.Infow("run completed", "action", state.Decision().Action, "confidence", state.Decision().Confidence)
	return state, nil
}

func (e *Engine) runPhases(ctx context.Context, state *analysis.State) error {
	type phaseFunc struct {
		phase analysis.Phase
		run   func(context.Context, *analysis.State) error
	}

	phases := []phaseFunc{
		{analysis.PhaseAnalysis, e.runAnalysis},
		{analysis.PhaseResearchDebate, e.runResearchDebate},
		{analysis.PhaseTradeProposal, e.runTradeProposal},
		{analysis.PhaseRiskDebate, e.runRiskDebate},
		{analysis.PhaseFinalDecision, e.runFinalDecision},
	}

	for i, p := range phases {
		if err := e.checkCancel(ctx, state); err != nil {
			return err
		}

		if i > 0 {
			if err := state.Advance(p.phase); err != nil {
				return &Failure{Phase: p.phase, Err: err}
			}
		}
		e.emit(state, ProgressEvent{Type: EventPhase, Phase: p.phase})

		start := time.Now()
		err := p.run(ctx, state)
		metrics.PhaseDuration.WithLabelValues(string(p.phase)).Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
	}

	if err := state.Advance(analysis.PhaseDone); err != nil {
		return &Failure{Phase: analysis.PhaseDone, Err: err}
	}
	e.emit(state, ProgressEvent{Type: EventPhase, Phase: analysis.PhaseDone})
	return nil
}

// runAnalysis dispatches one task per configured analyst concurrently.
// Each task writes a distinct report slot; deltas are applied here,
// after the join, so analyst goroutines never touch shared state.
func (e *Engine) runAnalysis(ctx context.Context, state *analysis.State) error {
	type result struct {
		kind  analysis.AnalystKind
		delta *agents.Delta
		err   error
	}

	view := state.Snapshot()
	results := make(chan result, len(e.cfg.Analysts))

	for _, kind := range e.cfg.Analysts {
		role, ok := agents.AnalystRole(kind)
		if !ok {
			return &Failure{Phase: analysis.PhaseAnalysis,
				Err: errors.Wrapf(errors.ErrInvalidInput, "unknown analyst kind %q", kind)}
		}

		go func(kind analysis.AnalystKind, role agents.Role) {
			delta, err := e.invoke(ctx, role, view)
			results <- result{kind: kind, delta: delta, err: err}
		}(kind, role)
	}

	var failures errors.MultiError
	for range e.cfg.Analysts {
		res := <-results
		if res.err != nil {
			failures.Add(errors.Wrapf(res.err, "analyst %s", res.kind))
			continue
		}
		if res.delta.Report == nil {
			failures.Add(errors.Wrapf(errors.ErrInternal, "analyst %s returned no report", res.kind))
			continue
		}
		if err := state.SetReport(res.delta.Report.Kind, res.delta.Report.Text); err != nil {
			failures.Add(err)
		}
	}

	if failures.HasErrors() {
		return &Failure{Phase: analysis.PhaseAnalysis, Err: failures.ToError()}
	}

	// Precondition for the next phase: every configured slot is filled.
	for _, kind := range e.cfg.Analysts {
		if _, ok := state.Report(kind); !ok {
			return &Failure{Phase: analysis.PhaseAnalysis,
				Err: errors.Wrapf(errors.ErrPhasePrecondition, "missing %s report", kind)}
		}
	}
	return nil
}

func (e *Engine) runResearchDebate(ctx context.Context, state *analysis.State) error {
	return e.runDebate(ctx, state, state.Research(), e.cfg.MaxDebateRounds, "research", analysis.PhaseResearchDebate)
}

func (e *Engine) runRiskDebate(ctx context.Context, state *analysis.State) error {
	if state.Proposal() == nil {
		return &Failure{Phase: analysis.PhaseRiskDebate,
			Err: errors.Wrap(errors.ErrPhasePrecondition, "missing trade proposal")}
	}
	return e.runDebate(ctx, state, state.Risk(), e.cfg.MaxRiskRounds, "risk", analysis.PhaseRiskDebate)
}

// runDebate alternates speakers under the fixed rotation until the
// conditional logic closes the debate. Turns are strictly sequential:
// each prompt depends on the full prior history.
func (e *Engine) runDebate(ctx context.Context, state *analysis.State, debate *analysis.Debate, maxRounds int, name string, phase analysis.Phase) error {
	rotation := len(debate.Rotation())

	for e.logic.NextStep(debate, maxRounds) == StepContinueDebate {
		if err := e.checkCancel(ctx, state); err != nil {
			return err
		}

		speaker := debate.NextSpeaker()
		role, ok := agents.SpeakerRole(speaker)
		if !ok {
			return &Failure{Phase: phase,
				Err: errors.Wrapf(errors.ErrInternal, "no agent for speaker %q", speaker)}
		}

		delta, err := e.invoke(ctx, role, state.Snapshot())
		if err != nil {
			return &Failure{Phase: phase, Err: errors.Wrapf(err, "%s turn %d", speaker, debate.Len()+1)}
		}
		if delta.Turn == nil {
			return &Failure{Phase: phase,
				Err: errors.Wrapf(errors.ErrInternal, "%s returned no turn", role)}
		}

		if err := debate.Append(delta.Turn.Speaker, delta.Turn.Statement); err != nil {
			return &Failure{Phase: phase, Err: err}
		}

		e.emit(state, ProgressEvent{
			Type:    EventTurn,
			Phase:   phase,
			Speaker: speaker,
			Turn:    debate.Len(),
		})

		// Close of a full rotation: refresh the debate summary.
		if debate.Len()%rotation == 0 {
			debate.SetSummary(delta.Turn.Statement)
		}
	}

	metrics.DebateRounds.WithLabelValues(name).Observe(float64(debate.Rounds()))
	return nil
}

func (e *Engine) runTradeProposal(ctx context.Context, state *analysis.State) error {
	delta, err := e.invoke(ctx, agents.RoleTrader, state.Snapshot())
	if err != nil {
		return &Failure{Phase: analysis.PhaseTradeProposal, Err: err}
	}
	if delta.Proposal == nil {
		return &Failure{Phase: analysis.PhaseTradeProposal,
			Err: errors.Wrap(errors.ErrInternal, "trader returned no proposal")}
	}
	if err := state.SetProposal(*delta.Proposal); err != nil {
		return &Failure{Phase: analysis.PhaseTradeProposal, Err: err}
	}
	return nil
}

// runFinalDecision invokes the portfolio manager. A terminal parse
// failure never produces a silent guess: the run falls back to HOLD
// with an explicit caveat on the decision.
func (e *Engine) runFinalDecision(ctx context.Context, state *analysis.State) error {
	delta, err := e.invoke(ctx, agents.RolePortfolioManager, state.Snapshot())

	if err != nil && errors.Is(err, errors.ErrParseFailure) {
		e.log.Warnw("terminal output unparsable, defaulting to HOLD", "run_id", state.RunID())
		fallback := analysis.Decision{
			Action:     analysis.ActionHold,
			Confidence: 0,
			Rationale:  "safe default applied",
			Caveat:     "terminal reasoning output could not be parsed; defaulted to HOLD",
		}
		if err := state.SetDecision(fallback); err != nil {
			return &Failure{Phase: analysis.PhaseFinalDecision, Err: err}
		}
		return nil
	}
	if err != nil {
		return &Failure{Phase: analysis.PhaseFinalDecision, Err: err}
	}
	if delta.Decision == nil {
		return &Failure{Phase: analysis.PhaseFinalDecision,
			Err: errors.Wrap(errors.ErrInternal, "portfolio manager returned no decision")}
	}

	if err := state.SetDecision(*delta.Decision); err != nil {
		return &Failure{Phase: analysis.PhaseFinalDecision, Err: err}
	}
	return nil
}

// invoke runs one agent with the engine-level retry budget. Transient
// provider failures inside the agent are already retried by the
// provider layer; here whole-node failures are retried up to
// RetryLimit attempts with exponential backoff.
func (e *Engine) invoke(ctx context.Context, role agents.Role, view analysis.View) (*agents.Delta, error) {
	agent, ok := e.registry.Get(role)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "agent %s not registered", role)
	}

	var lastErr error
	backoff := e.cfg.RetryBackoff

	for attempt := 1; attempt <= e.cfg.RetryLimit; attempt++ {
		start := time.Now()
		delta, err := agent.Act(ctx, view)
		metrics.AgentLatency.WithLabelValues(string(role)).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.AgentCalls.WithLabelValues(string(role), "success").Inc()
			metrics.AgentTokens.WithLabelValues(string(role), "input").Add(float64(delta.Usage.PromptTokens))
			metrics.AgentTokens.WithLabelValues(string(role), "output").Add(float64(delta.Usage.CompletionTokens))
			return delta, nil
		}

		metrics.AgentCalls.WithLabelValues(string(role), "error").Inc()
		lastErr = err

		if !retryable(err) || attempt == e.cfg.RetryLimit {
			break
		}

		e.log.Warnw("agent failed, retrying",
			"role", role, "attempt", attempt, "limit", e.cfg.RetryLimit, "error", err)
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.ErrCancelled, ctx.Err().Error())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, lastErr
}

// retryable excludes failures that repeating the call cannot fix.
func retryable(err error) bool {
	switch {
	case errors.Is(err, errors.ErrPhasePrecondition),
		errors.Is(err, errors.ErrParseFailure),
		errors.Is(err, errors.ErrReportExists),
		errors.Is(err, errors.ErrStateFinal),
		errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// checkCancel honors cooperative cancellation at phase boundaries and
// before each debate turn.
func (e *Engine) checkCancel(ctx context.Context, state *analysis.State) error {
	if ctx.Err() != nil {
		return &Failure{Phase: state.Phase(), Err: errors.Wrap(errors.ErrCancelled, ctx.Err().Error())}
	}
	return nil
}

func (e *Engine) emit(state *analysis.State, event ProgressEvent) {
	event.RunID = state.RunID()
	event.Ticker = state.Ticker()
	event.Date = state.Date()
	if event.Phase == "" {
		event.Phase = state.Phase()
	}
	e.notifier.Publish(event)
}
