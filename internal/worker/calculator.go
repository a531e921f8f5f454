package worker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// Calculator reconciles a product's derived rating fields from the review
// rows. The API already recomputes synchronously inside each mutation
// transaction; this path re-runs the same full recompute so a missed or
// partial write converges on the next event.
type Calculator struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewCalculator creates a new rating calculator
func NewCalculator(db *sqlx.DB, logger *logger.Logger) *Calculator {
	return &Calculator{
		db:     db,
		logger: logger,
	}
}

// CalculateAndUpdate recomputes the product's average rating and review count
func (c *Calculator) CalculateAndUpdate(ctx context.Context, productID int64) error {
	query := `
		UPDATE products
		SET
			rating = (SELECT ROUND(AVG(rating)::numeric, 2)
			          FROM reviews
			          WHERE product_id = $1),
			review_count = (SELECT COUNT(*)
			                FROM reviews
			                WHERE product_id = $1),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := c.db.ExecContext(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Product deleted since the event was published; nothing to reconcile
	if rowsAffected == 0 {
		c.logger.WithFields(map[string]any{
			"product_id": productID,
		}).Info("Product not found, skipping rating update")
		return nil
	}

	if err := c.reconcileHelpfulCounts(ctx, productID); err != nil {
		return err
	}

	c.logger.WithFields(map[string]any{
		"product_id": productID,
	}).Info("Successfully updated product rating")

	return nil
}

// reconcileHelpfulCounts rewrites helpful_count for the product's reviews
// from the vote rows
func (c *Calculator) reconcileHelpfulCounts(ctx context.Context, productID int64) error {
	query := `
		UPDATE reviews r
		SET helpful_count = (
			SELECT COUNT(*) FROM review_helpful rh
			WHERE rh.review_id = r.id AND rh.is_helpful = TRUE
		)
		WHERE r.product_id = $1
	`

	if _, err := c.db.ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to reconcile helpful counts: %w", err)
	}

	return nil
}

// GetCurrentRating retrieves the current average rating for verification (used in tests)
func (c *Calculator) GetCurrentRating(ctx context.Context, productID int64) (float64, error) {
	var rating sql.NullFloat64
	query := `SELECT rating FROM products WHERE id = $1`

	err := c.db.GetContext(ctx, &rating, query, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to get current rating: %w", err)
	}

	if !rating.Valid {
		return 0, nil
	}

	return rating.Float64, nil
}
