package domain

import "time"

// Review event types published on the reviews stream.
const (
	EventReviewCreated = "review.created"
	EventReviewUpdated = "review.updated"
	EventReviewDeleted = "review.deleted"
	EventReviewHelpful = "review.helpful"
)

// ReviewEvent is the message published after every review mutation. Consumers
// treat it as a dirty-flag for the product: the payload carries identifiers,
// never derived values, so processing stays idempotent.
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	ReviewID  int64     `json:"review_id"`
	Timestamp time.Time `json:"timestamp"`
}
