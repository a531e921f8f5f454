package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// reviewRow carries a review joined with its author and the caller's vote.
type reviewRow struct {
	domain.Review
	AuthorName         string         `db:"author_name"`
	AuthorAvatar       sql.NullString `db:"author_avatar"`
	ViewerFoundHelpful bool           `db:"viewer_found_helpful"`
}

func (row *reviewRow) toDomain() *domain.Review {
	review := row.Review
	author := &domain.UserSummary{ID: row.UserID, Name: row.AuthorName}
	if row.AuthorAvatar.Valid {
		avatar := row.AuthorAvatar.String
		author.Avatar = &avatar
	}
	review.Author = author
	review.ViewerFoundHelpful = row.ViewerFoundHelpful
	return &review
}

// Create inserts a review and recomputes the product's aggregate rating in
// one transaction. The (product_id, user_id) unique constraint is the
// authoritative duplicate signal; the EXISTS pre-check is only a fast path.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var productExists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
	if err := tx.GetContext(ctx, &productExists, checkQuery, review.ProductID); err != nil {
		return err
	}
	if !productExists {
		return domain.ErrNotFound
	}

	var alreadyReviewed bool
	dupQuery := `SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`
	if err := tx.GetContext(ctx, &alreadyReviewed, dupQuery, review.ProductID, review.UserID); err != nil {
		return err
	}
	if alreadyReviewed {
		return domain.ErrAlreadyExists
	}

	query := `
		INSERT INTO reviews (product_id, user_id, rating, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, helpful_count, created_at, updated_at
	`

	err = tx.QueryRowxContext(
		ctx,
		query,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Content,
	).Scan(
		&review.ID,
		&review.HelpfulCount,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	if err := recomputeProductRating(ctx, tx, review.ProductID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a review with its embedded author summary
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, r.rating, r.content, r.helpful_count,
		       r.created_at, r.updated_at,
		       u.name AS author_name, u.avatar AS author_avatar,
		       FALSE AS viewer_found_helpful
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	var row reviewRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// ListByProduct retrieves a page of a product's reviews with author summaries
// and, when callerID is set, the caller's own helpful votes. The total count
// is returned alongside so callers can build pagination metadata.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64, page, limit int, sort string, callerID *int64) ([]*domain.Review, int, error) {
	countQuery := `SELECT COUNT(*) FROM reviews WHERE product_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, productID); err != nil {
		return nil, 0, err
	}

	reviews := []*domain.Review{}
	if total == 0 {
		return reviews, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.product_id, r.user_id, r.rating, r.content, r.helpful_count,
		       r.created_at, r.updated_at,
		       u.name AS author_name, u.avatar AS author_avatar,
		       COALESCE(rh.is_helpful, FALSE) AS viewer_found_helpful
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN review_helpful rh ON rh.review_id = r.id AND rh.user_id = $4
		WHERE r.product_id = $1
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, reviewOrderBy(sort))

	offset := (page - 1) * limit

	var caller sql.NullInt64
	if callerID != nil {
		caller = sql.NullInt64{Int64: *callerID, Valid: true}
	}

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, productID, limit, offset, caller); err != nil {
		return nil, 0, err
	}

	for i := range rows {
		reviews = append(reviews, rows[i].toDomain())
	}

	return reviews, total, nil
}

// ListByUser retrieves a page of the user's own reviews and the total count
func (r *ReviewRepository) ListByUser(ctx context.Context, userID int64, page, limit int, sort string) ([]*domain.Review, int, error) {
	countQuery := `SELECT COUNT(*) FROM reviews WHERE user_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	reviews := []*domain.Review{}
	if total == 0 {
		return reviews, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.product_id, r.user_id, r.rating, r.content, r.helpful_count,
		       r.created_at, r.updated_at,
		       u.name AS author_name, u.avatar AS author_avatar,
		       FALSE AS viewer_found_helpful
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, reviewOrderBy(sort))

	offset := (page - 1) * limit

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, 0, err
	}

	for i := range rows {
		reviews = append(reviews, rows[i].toDomain())
	}

	return reviews, total, nil
}

// Update rewrites rating and content of the review owned by review.UserID and
// recomputes the product aggregate in the same transaction. The ownership
// predicate is part of the UPDATE itself, so a review owned by someone else
// surfaces as ErrNotFound.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE reviews
		SET rating = $1, content = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING product_id, helpful_count, created_at, updated_at
	`

	err = tx.QueryRowxContext(
		ctx,
		query,
		review.Rating,
		review.Content,
		review.ID,
		review.UserID,
	).Scan(
		&review.ProductID,
		&review.HelpfulCount,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := recomputeProductRating(ctx, tx, review.ProductID); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the review owned by ownerID and recomputes the product
// aggregate in the same transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id, ownerID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `DELETE FROM reviews WHERE id = $1 AND user_id = $2 RETURNING product_id`

	var productID int64
	err = tx.QueryRowxContext(ctx, query, id, ownerID).Scan(&productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := recomputeProductRating(ctx, tx, productID); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkHelpful records or flips the voter's vote and returns the recomputed
// helpful count. The whole sequence runs in one transaction so a failure
// never leaves the count out of step with the vote rows. Re-submitting an
// unchanged flag skips the vote write but still recounts.
func (r *ReviewRepository) MarkHelpful(ctx context.Context, reviewID, voterID int64, isHelpful bool) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var reviewExists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`
	if err := tx.GetContext(ctx, &reviewExists, checkQuery, reviewID); err != nil {
		return 0, err
	}
	if !reviewExists {
		return 0, domain.ErrNotFound
	}

	var existing struct {
		ID        int64 `db:"id"`
		IsHelpful bool  `db:"is_helpful"`
	}
	voteQuery := `SELECT id, is_helpful FROM review_helpful WHERE review_id = $1 AND user_id = $2`
	err = tx.GetContext(ctx, &existing, voteQuery, reviewID, voterID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insertQuery := `INSERT INTO review_helpful (review_id, user_id, is_helpful) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, insertQuery, reviewID, voterID, isHelpful); err != nil {
			if isUniqueViolation(err) {
				// Lost a race with an identical request; the recount below
				// still yields a consistent answer.
				return 0, domain.ErrConflict
			}
			return 0, err
		}
	case err != nil:
		return 0, err
	case existing.IsHelpful != isHelpful:
		updateQuery := `UPDATE review_helpful SET is_helpful = $1, updated_at = NOW() WHERE id = $2`
		if _, err := tx.ExecContext(ctx, updateQuery, isHelpful, existing.ID); err != nil {
			return 0, err
		}
	}

	// Unconditional recount of positive votes, even on the no-op path.
	recountQuery := `
		UPDATE reviews
		SET helpful_count = (
			SELECT COUNT(*) FROM review_helpful
			WHERE review_id = $1 AND is_helpful = TRUE
		)
		WHERE id = $1
		RETURNING helpful_count
	`

	var count int
	if err := tx.QueryRowxContext(ctx, recountQuery, reviewID).Scan(&count); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return count, nil
}

// CountByUser returns the number of reviews authored by the user
func (r *ReviewRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE user_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, err
	}

	return count, nil
}

// recomputeProductRating rewrites the product's derived rating fields from
// the review rows. Always a full recompute, never a delta: concurrent writers
// race to last-write-wins but converge on the same value. AVG over zero rows
// is NULL, which is the "no reviews yet" representation.
func recomputeProductRating(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	query := `
		UPDATE products
		SET rating = (SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE product_id = $1),
		    review_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1),
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("recompute product rating: %w", err)
	}

	return nil
}

// reviewOrderBy maps a normalized sort key to an ORDER BY clause. Only known
// keys reach this point; anything else already collapsed to date_desc.
func reviewOrderBy(sort string) string {
	switch sort {
	case domain.SortRatingDesc:
		return "r.rating DESC, r.created_at DESC"
	case domain.SortHelpfulDesc:
		return "r.helpful_count DESC, r.created_at DESC"
	default:
		return "r.created_at DESC"
	}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
