package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// BookmarkRepository implements domain.BookmarkRepository for PostgreSQL
type BookmarkRepository struct {
	db *sqlx.DB
}

// NewBookmarkRepository creates a new PostgreSQL bookmark repository
func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Exists reports whether the user bookmarked the product
func (r *BookmarkRepository) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND product_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, productID); err != nil {
		return false, err
	}
	return exists, nil
}

// Add inserts a bookmark; adding an existing bookmark is a no-op
func (r *BookmarkRepository) Add(ctx context.Context, userID, productID int64) error {
	query := `
		INSERT INTO bookmarks (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, userID, productID)
	return err
}

// Remove deletes a bookmark; ErrNotFound when none exists
func (r *BookmarkRepository) Remove(ctx context.Context, userID, productID int64) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ListProducts retrieves a page of the user's bookmarked products and the
// total count, newest bookmark first
func (r *BookmarkRepository) ListProducts(ctx context.Context, userID int64, page, limit int) ([]*domain.Product, int, error) {
	countQuery := `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	products := []*domain.Product{}
	if total == 0 {
		return products, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookmarks b
		JOIN products p ON p.id = b.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2 OFFSET $3
	`, productColumns)

	offset := (page - 1) * limit
	if err := r.db.SelectContext(ctx, &products, query, userID, limit, offset); err != nil {
		return nil, 0, err
	}

	for _, p := range products {
		p.Bookmarked = true
	}

	return products, total, nil
}

// CountByUser returns the number of bookmarks held by the user
func (r *BookmarkRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}
