package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream carrying review events.
	StreamName = "REVIEWS"

	// StreamSubjects is the subject all review events are published on.
	StreamSubjects = "reviews.events"

	// ConsumerName is the durable consumer the rating worker pulls from.
	ConsumerName = "rating-worker"

	// maxDeliver bounds redelivery attempts. Dropping after that is safe:
	// the worker recomputes from database state, so the next event for the
	// product catches up.
	maxDeliver = 3

	ackWait = 30 * time.Second

	// streamMaxAge evicts events nobody consumed; a day-old dirty-flag is
	// useless once fresher events exist.
	streamMaxAge = 24 * time.Hour
)

// StreamConfig provisions the JetStream stream and durable consumer the
// review pipeline relies on. Both operations are idempotent so every service
// can call them at startup.
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{js: js, logger: log}
}

// EnsureStream creates the review event stream if it does not exist yet.
// Work-queue retention with file storage: each event is consumed once and
// survives broker restarts.
func (s *StreamConfig) EnsureStream() error {
	info, err := s.js.StreamInfo(StreamName)

	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": StreamSubjects,
		}).Info("Creating JetStream stream")

		_, err = s.js.AddStream(&nats.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{StreamSubjects},
			Retention:   nats.WorkQueuePolicy,
			Storage:     nats.FileStorage,
			Replicas:    1,
			MaxAge:      streamMaxAge,
			Discard:     nats.DiscardOld,
			Description: "Review events for product rating reconciliation",
		})
		if err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("stream info: %w", err)

	default:
		s.logger.WithFields(map[string]any{
			"stream":   info.Config.Name,
			"messages": info.State.Msgs,
		}).Info("JetStream stream already exists")
		return nil
	}
}

// EnsureConsumer creates the durable rating-worker consumer if missing:
// explicit acks, bounded redelivery with exponential backoff, no DLQ.
func (s *StreamConfig) EnsureConsumer() error {
	info, err := s.js.ConsumerInfo(StreamName, ConsumerName)

	switch {
	case errors.Is(err, nats.ErrConsumerNotFound):
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"consumer": ConsumerName,
		}).Info("Creating JetStream consumer")

		_, err = s.js.AddConsumer(StreamName, &nats.ConsumerConfig{
			Durable:       ConsumerName,
			AckPolicy:     nats.AckExplicitPolicy,
			AckWait:       ackWait,
			MaxDeliver:    maxDeliver,
			FilterSubject: StreamSubjects,
			BackOff:       redeliveryBackoff(maxDeliver),
			Description:   "Rating worker consumer for review events",
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("consumer info: %w", err)

	default:
		s.logger.WithFields(map[string]any{
			"consumer":    info.Name,
			"pending":     info.NumPending,
			"redelivered": info.NumRedelivered,
		}).Info("JetStream consumer already exists")
		return nil
	}
}

// redeliveryBackoff builds the 1s, 2s, 4s, ... schedule. MaxDeliver n needs
// n-1 entries since the first delivery is immediate.
func redeliveryBackoff(maxDeliveries int) []time.Duration {
	if maxDeliveries <= 1 {
		return nil
	}
	backoff := make([]time.Duration, maxDeliveries-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}
