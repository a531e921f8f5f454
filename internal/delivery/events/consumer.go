package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// Consumer is a plain NATS subscriber for review events. Unlike the rating
// worker it does not use a durable JetStream consumer; missing a notification
// is acceptable, missing a rating update is not.
type Consumer struct {
	nc     *nats.Conn
	logger *logger.Logger
	sub    *nats.Subscription
}

func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Infof("Connected to NATS at %s", cfg.NATS.URL)

	return &Consumer{nc: nc, logger: log}, nil
}

// Subscribe registers handler for every message on subject.
func (c *Consumer) Subscribe(subject string, handler func(data []byte) error) error {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			c.logger.Errorf(err, "Failed to handle message on subject %s", subject)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	c.sub = sub
	c.logger.Infof("Subscribed to NATS subject: %s", subject)
	return nil
}

func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from NATS: %v", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// NotificationHandler turns review events into notification log lines. This
// is the delivery seam for outbound channels; today the only channel is the
// structured log.
func NotificationHandler(log *logger.Logger) func(data []byte) error {
	return func(data []byte) error {
		var event domain.ReviewEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Error("Failed to unmarshal review event", err)
			return err
		}

		var message string
		switch event.EventType {
		case domain.EventReviewCreated:
			message = "New review posted"
		case domain.EventReviewUpdated:
			message = "Review edited"
		case domain.EventReviewDeleted:
			message = "Review removed"
		case domain.EventReviewHelpful:
			message = "Review voted on"
		default:
			log.Warnf("Unknown review event type: %s", event.EventType)
			return nil
		}

		log.WithFields(map[string]interface{}{
			"event_type": event.EventType,
			"product_id": event.ProductID,
			"review_id":  event.ReviewID,
			"timestamp":  event.Timestamp,
		}).Info(message)
		return nil
	}
}
