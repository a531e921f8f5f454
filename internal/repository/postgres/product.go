package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `
	p.id, p.category_id, p.name, p.slug, p.description, p.price,
	p.rating, p.review_count, p.created_at, p.updated_at,
	c.name AS category_name
`

// List retrieves a filtered page of products and the total count
func (r *ProductRepository) List(ctx context.Context, page, limit int, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	where := []string{}
	args := []interface{}{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products p %s`, whereClause)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	products := []*domain.Product{}
	if total == 0 {
		return products, 0, nil
	}

	args = append(args, limit)
	limitArg := len(args)
	args = append(args, (page-1)*limit)
	offsetArg := len(args)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, productOrderBy(filter.Sort), limitArg, offsetArg)

	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	if err := r.attachPrimaryImages(ctx, products); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID retrieves a product with images and specifications
func (r *ProductRepository) GetByID(ctx context.Context, id int64, callerID *int64) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, productColumns)

	return r.getOne(ctx, query, id, callerID)
}

// GetBySlug retrieves a product by its slug
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string, callerID *int64) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1
	`, productColumns)

	return r.getOne(ctx, query, slug, callerID)
}

func (r *ProductRepository) getOne(ctx context.Context, query string, key interface{}, callerID *int64) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	imagesQuery := `
		SELECT id, product_id, image_path, is_primary
		FROM product_images
		WHERE product_id = $1
		ORDER BY is_primary DESC, id
	`
	if err := r.db.SelectContext(ctx, &product.Images, imagesQuery, product.ID); err != nil {
		return nil, err
	}

	specsQuery := `
		SELECT id, product_id, spec_name, spec_value, display_order
		FROM product_specs
		WHERE product_id = $1
		ORDER BY display_order, id
	`
	if err := r.db.SelectContext(ctx, &product.Specifications, specsQuery, product.ID); err != nil {
		return nil, err
	}

	if callerID != nil {
		flagsQuery := `
			SELECT
				EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND product_id = $2) AS bookmarked,
				EXISTS(SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2) AS reviewed
		`
		var flags struct {
			Bookmarked bool `db:"bookmarked"`
			Reviewed   bool `db:"reviewed"`
		}
		if err := r.db.GetContext(ctx, &flags, flagsQuery, *callerID, product.ID); err != nil {
			return nil, err
		}
		product.Bookmarked = flags.Bookmarked
		product.Reviewed = flags.Reviewed
	}

	return &product, nil
}

// Create inserts a product with its images and specifications in one transaction
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (category_id, name, slug, description, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowxContext(
		ctx,
		query,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	if err := insertProductChildren(ctx, tx, product); err != nil {
		return err
	}

	return tx.Commit()
}

// Update replaces a product's fields, images and specifications. Child rows
// are rewritten wholesale, matching what the caller submitted.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET category_id = $1, name = $2, slug = $3, description = $4, price = $5,
		    updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err = tx.QueryRowxContext(
		ctx,
		query,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_specs WHERE product_id = $1`, product.ID); err != nil {
		return err
	}

	if err := insertProductChildren(ctx, tx, product); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a product; dependent rows go with it via ON DELETE CASCADE
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
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

// Exists reports whether a product with the given id exists
func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}

func insertProductChildren(ctx context.Context, tx *sqlx.Tx, product *domain.Product) error {
	for i := range product.Images {
		img := &product.Images[i]
		img.ProductID = product.ID
		query := `
			INSERT INTO product_images (product_id, image_path, is_primary)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, query, img.ProductID, img.ImagePath, img.IsPrimary).Scan(&img.ID); err != nil {
			return err
		}
	}

	for i := range product.Specifications {
		spec := &product.Specifications[i]
		spec.ProductID = product.ID
		query := `
			INSERT INTO product_specs (product_id, spec_name, spec_value, display_order)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, query, spec.ProductID, spec.SpecName, spec.SpecValue, spec.DisplayOrder).Scan(&spec.ID); err != nil {
			return err
		}
	}

	return nil
}

// attachPrimaryImages loads one primary image per listed product so list
// responses can render thumbnails without N detail lookups.
func (r *ProductRepository) attachPrimaryImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(products))
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT ON (product_id) id, product_id, image_path, is_primary
		FROM product_images
		WHERE product_id IN (?)
		ORDER BY product_id, is_primary DESC, id
	`, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	var images []domain.ProductImage
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return err
	}

	for _, img := range images {
		if p, ok := byID[img.ProductID]; ok {
			p.Images = append(p.Images, img)
		}
	}

	return nil
}

func productOrderBy(sort string) string {
	switch sort {
	case domain.ProductSortPriceAsc:
		return "p.price ASC, p.id"
	case domain.ProductSortPriceDesc:
		return "p.price DESC, p.id"
	case domain.ProductSortRatingDesc:
		return "p.rating DESC NULLS LAST, p.id"
	default:
		return "p.created_at DESC, p.id"
	}
}
