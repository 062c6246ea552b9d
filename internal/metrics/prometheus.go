package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	RunsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consilium_runs_started_total",
			Help: "Total number of workflow runs started",
		},
	)

	RunsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consilium_runs_finished_total",
			Help: "Total number of workflow runs finished",
		},
		[]string{"status"}, // status: completed|failed|cancelled
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consilium_phase_duration_seconds",
			Help:    "Workflow phase duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"phase"},
	)

	DebateRounds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consilium_debate_rounds",
			Help:    "Completed debate rounds per run",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"debate"}, // debate: research|risk
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consilium_agent_calls_total",
			Help: "Total number of agent invocations",
		},
		[]string{"role", "status"}, // status: success|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consilium_agent_latency_seconds",
			Help:    "Agent invocation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"role"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consilium_agent_tokens_total",
			Help: "Total tokens consumed by agents",
		},
		[]string{"role", "type"}, // type: input|output
	)

	// Memory metrics
	MemoryStores = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consilium_memory_stores_total",
			Help: "Total reflections stored",
		},
	)

	MemoryRetrievals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consilium_memory_retrievals_total",
			Help: "Total memory retrievals",
		},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		RunsStarted,
		RunsFinished,
		PhaseDuration,
		DebateRounds,
		AgentCalls,
		AgentLatency,
		AgentTokens,
		MemoryStores,
		MemoryRetrievals,
	)
}

// Handler returns the HTTP handler exposing the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
