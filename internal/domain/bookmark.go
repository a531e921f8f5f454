package domain

import (
	"context"
	"time"
)

// Bookmark marks a product as saved by a user.
type Bookmark struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BookmarkRepository defines the interface for bookmark data access
type BookmarkRepository interface {
	// Exists reports whether the user bookmarked the product
	Exists(ctx context.Context, userID, productID int64) (bool, error)

	// Add inserts a bookmark; adding an existing bookmark is a no-op
	Add(ctx context.Context, userID, productID int64) error

	// Remove deletes a bookmark; ErrNotFound when none exists
	Remove(ctx context.Context, userID, productID int64) error

	// ListProducts retrieves a page of the user's bookmarked products and
	// the total count, newest bookmark first
	ListProducts(ctx context.Context, userID int64, page, limit int) ([]*Product, int, error)

	// CountByUser returns the number of bookmarks held by the user
	CountByUser(ctx context.Context, userID int64) (int, error)
}
