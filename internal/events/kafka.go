package events

import (
	"context"
	"time"

	"consilium/internal/adapters/kafka"
	"consilium/internal/workflow"
	"consilium/pkg/logger"
)

// KafkaSink forwards run progress events to the run events topic as
// JSON, keyed by run ID so each run stays ordered in its partition.
type KafkaSink struct {
	producer *kafka.Producer
	timeout  time.Duration
	log      *logger.Logger
}

// NewKafkaSink creates a sink backed by the given producer.
func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		timeout:  5 * time.Second,
		log:      logger.Get().With("component", "kafka_event_sink"),
	}
}

// Publish implements workflow.Sink. Delivery failures are logged and
// dropped; progress events are advisory and never fail a run.
func (s *KafkaSink) Publish(event workflow.ProgressEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.producer.Publish(ctx, kafka.TopicRunEvents, event.RunID.String(), event); err != nil {
		s.log.Warnw("failed to publish run event",
			"run_id", event.RunID, "type", event.Type, "error", err)
	}
}
