package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// Publisher writes review events to NATS JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

func NewPublisher(cfg *config.Config, log *logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	log.With("url", cfg.NATS.URL).Info("Connected to NATS JetStream")

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// PublishReviewEvent publishes a review event on the reviews subject.
// JetStream acknowledges only after the message is stored.
func (p *Publisher) PublishReviewEvent(ctx context.Context, eventType string, productID, reviewID int64) error {
	event := domain.ReviewEvent{
		EventType: eventType,
		ProductID: productID,
		ReviewID:  reviewID,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	return p.Publish(ctx, StreamSubjects, data)
}

// Publish writes data to a JetStream subject.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	pubAck, err := p.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		p.logger.Errorf(err, "Failed to publish to JetStream subject %s", subject)
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"stream":   pubAck.Stream,
		"sequence": pubAck.Sequence,
	}).Debug("Published message to JetStream")

	return nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
