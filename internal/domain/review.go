package domain

import (
	"context"
	"time"
)

// Review sort keys accepted by list operations.
const (
	SortDateDesc    = "date_desc"
	SortRatingDesc  = "rating_desc"
	SortHelpfulDesc = "helpful_desc"
)

// NormalizeReviewSort maps an arbitrary sort parameter onto a supported
// sort key. Unknown values fall back to date_desc.
func NormalizeReviewSort(sort string) string {
	switch sort {
	case SortRatingDesc, SortHelpfulDesc:
		return sort
	default:
		return SortDateDesc
	}
}

// Review represents a product review. At most one review exists per
// (product, author) pair; HelpfulCount is derived from positive helpful votes.
type Review struct {
	ID           int64     `json:"id" db:"id"`
	ProductID    int64     `json:"product_id" db:"product_id" validate:"required"`
	UserID       int64     `json:"user_id" db:"user_id" validate:"required"`
	Rating       int       `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Content      string    `json:"content" db:"content" validate:"required,min=1,max=5000"`
	HelpfulCount int       `json:"helpful_count" db:"helpful_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Author is the embedded public view of the review's author.
	Author *UserSummary `json:"author,omitempty" db:"-"`

	// ViewerFoundHelpful reports whether the requesting user marked this
	// review helpful. Always false for anonymous callers.
	ViewerFoundHelpful bool `json:"is_helpful" db:"-"`
}

// HelpfulVote represents one user's helpful/not-helpful vote on a review.
// At most one vote exists per (review, voter) pair; the flag may be flipped.
type HelpfulVote struct {
	ID        int64     `json:"id" db:"id"`
	ReviewID  int64     `json:"review_id" db:"review_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	IsHelpful bool      `json:"is_helpful" db:"is_helpful"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewRepository defines the interface for review data access.
// Every mutation recomputes the owning product's rating and review_count
// inside the same transaction.
type ReviewRepository interface {
	// Create inserts a new review and fills ID/timestamps.
	// Returns ErrNotFound when the product does not exist and
	// ErrAlreadyExists when the author already reviewed the product.
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review with its embedded author summary
	GetByID(ctx context.Context, id int64) (*Review, error)

	// ListByProduct retrieves a page of reviews for a product and the total
	// count. callerID, when non-nil, resolves ViewerFoundHelpful per review.
	ListByProduct(ctx context.Context, productID int64, page, limit int, sort string, callerID *int64) ([]*Review, int, error)

	// ListByUser retrieves a page of the user's own reviews and the total count
	ListByUser(ctx context.Context, userID int64, page, limit int, sort string) ([]*Review, int, error)

	// Update updates rating and content of the review owned by review.UserID.
	// The lookup is ownership-gated: a row owned by someone else reads as
	// ErrNotFound here; callers distinguish 404 from 403 with a prior GetByID.
	Update(ctx context.Context, review *Review) error

	// Delete removes the review with the given id owned by ownerID
	Delete(ctx context.Context, id, ownerID int64) error

	// MarkHelpful records or flips voterID's vote on a review and returns the
	// recomputed helpful count. Re-submitting an unchanged flag is a no-op
	// that still returns the current count. Returns ErrNotFound when the
	// review does not exist.
	MarkHelpful(ctx context.Context, reviewID, voterID int64, isHelpful bool) (int, error)

	// CountByUser returns the number of reviews authored by the user
	CountByUser(ctx context.Context, userID int64) (int, error)
}
