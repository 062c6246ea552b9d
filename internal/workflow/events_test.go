package workflow_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/internal/workflow"
)

type recordingSink struct {
	mu     sync.Mutex
	events []workflow.ProgressEvent
}

func (s *recordingSink) Publish(event workflow.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestNotifier_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	n := workflow.NewNotifier(sink)
	defer n.Close()

	n.Publish(workflow.ProgressEvent{Type: workflow.EventPhase, Turn: 1})
	n.Publish(workflow.ProgressEvent{Type: workflow.EventTurn, Turn: 2})
	n.Publish(workflow.ProgressEvent{Type: workflow.EventCompleted, Turn: 3})

	require.Eventually(t, func() bool { return sink.len() == 3 }, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, []int{sink.events[0].Turn, sink.events[1].Turn, sink.events[2].Turn})
	assert.False(t, sink.events[0].Timestamp.IsZero())
}

func TestNotifier_NeverBlocksOnSlowSink(t *testing.T) {
	release := make(chan struct{})
	blocked := workflow.SinkFunc(func(workflow.ProgressEvent) { <-release })

	n := workflow.NewNotifier(blocked)
	defer func() {
		close(release)
		n.Close()
	}()

	done := make(chan struct{})
	go func() {
		// Far more events than the sink buffer holds.
		for i := 0; i < 500; i++ {
			n.Publish(workflow.ProgressEvent{Type: workflow.EventTurn, Turn: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow sink")
	}
}

func TestNotifier_NoSinks(t *testing.T) {
	n := workflow.NewNotifier()
	n.Publish(workflow.ProgressEvent{Type: workflow.EventPhase})
	n.Close()
}
