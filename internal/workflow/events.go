package workflow

import (
	"time"

	"github.com/google/uuid"

	"consilium/internal/domain/analysis"
	"consilium/pkg/logger"
)

// EventType classifies progress events.
type EventType string

const (
	EventPhase     EventType = "phase"
	EventTurn      EventType = "turn"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// ProgressEvent is emitted at every phase transition and debate turn.
// Consumers are external (UI, bus); the engine never blocks on them.
type ProgressEvent struct {
	RunID     uuid.UUID      `json:"run_id"`
	Ticker    string         `json:"ticker"`
	Date      time.Time      `json:"date"`
	Type      EventType      `json:"type"`
	Phase     analysis.Phase `json:"phase"`
	Speaker   string         `json:"speaker,omitempty"`
	Turn      int            `json:"turn,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives progress events. Implementations must not assume
// delivery ordering across runs; within one run events arrive in order
// unless the sink falls behind and events are dropped.
type Sink interface {
	Publish(event ProgressEvent)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event ProgressEvent)

// Publish calls f.
func (f SinkFunc) Publish(event ProgressEvent) { f(event) }

const sinkBuffer = 64

// Notifier fans events out to sinks without ever blocking the engine.
// Each sink gets a buffered queue drained by its own goroutine; a slow
// sink loses events rather than stalling the run.
type Notifier struct {
	queues []chan ProgressEvent
	done   chan struct{}
	log    *logger.Logger
}

// NewNotifier starts one drain goroutine per sink.
func NewNotifier(sinks ...Sink) *Notifier {
	n := &Notifier{
		done: make(chan struct{}),
		log:  logger.Get().With("component", "workflow_notifier"),
	}

	for _, sink := range sinks {
		queue := make(chan ProgressEvent, sinkBuffer)
		n.queues = append(n.queues, queue)

		go func(sink Sink, queue chan ProgressEvent) {
			for event := range queue {
				sink.Publish(event)
			}
		}(sink, queue)
	}

	return n
}

// Publish enqueues the event for every sink, dropping when a queue is
// full.
func (n *Notifier) Publish(event ProgressEvent) {
	event.Timestamp = time.Now()
	for _, queue := range n.queues {
		select {
		case queue <- event:
		default:
			n.log.Debugw("progress event dropped", "type", event.Type, "phase", event.Phase)
		}
	}
}

// Close stops the drain goroutines after the queues empty.
func (n *Notifier) Close() {
	for _, queue := range n.queues {
		close(queue)
	}
}
