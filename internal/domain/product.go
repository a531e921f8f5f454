package domain

import (
	"context"
	"time"
)

// Product sort keys accepted by catalog listing.
const (
	ProductSortPriceAsc   = "price_asc"
	ProductSortPriceDesc  = "price_desc"
	ProductSortRatingDesc = "rating_desc"
	ProductSortNewest     = "newest"
)

// Product represents a catalog product. Rating and ReviewCount are derived
// from the reviews table and recomputed on every review mutation; Rating is
// nil while the product has no reviews.
type Product struct {
	ID           int64     `json:"id" db:"id"`
	CategoryID   *int64    `json:"category_id,omitempty" db:"category_id"`
	CategoryName *string   `json:"category_name,omitempty" db:"category_name"`
	Name         string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Slug         string    `json:"slug" db:"slug"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Price        float64   `json:"price" db:"price" validate:"gte=0"`
	Rating       *float64  `json:"rating" db:"rating"`
	ReviewCount  int       `json:"review_count" db:"review_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Images         []ProductImage `json:"images,omitempty" db:"-"`
	Specifications []ProductSpec  `json:"specifications,omitempty" db:"-"`

	// Bookmarked and Reviewed are resolved for the requesting user on
	// detail lookups; both stay false for anonymous callers.
	Bookmarked bool `json:"bookmarked" db:"-"`
	Reviewed   bool `json:"reviewed" db:"-"`
}

// ProductImage is an image attached to a product.
type ProductImage struct {
	ID        int64  `json:"id" db:"id"`
	ProductID int64  `json:"-" db:"product_id"`
	ImagePath string `json:"image_path" db:"image_path"`
	IsPrimary bool   `json:"is_primary" db:"is_primary"`
}

// ProductSpec is one technical specification row of a product.
type ProductSpec struct {
	ID           int64  `json:"id" db:"id"`
	ProductID    int64  `json:"-" db:"product_id"`
	SpecName     string `json:"spec_name" db:"spec_name"`
	SpecValue    string `json:"spec_value" db:"spec_value"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
}

// ProductFilter narrows catalog listing.
type ProductFilter struct {
	CategoryID *int64
	Search     string
	Sort       string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// List retrieves a filtered page of products and the total count
	List(ctx context.Context, page, limit int, filter ProductFilter) ([]*Product, int, error)

	// GetByID retrieves a product with images and specifications.
	// callerID, when non-nil, resolves Bookmarked and Reviewed.
	GetByID(ctx context.Context, id int64, callerID *int64) (*Product, error)

	// GetBySlug retrieves a product by its slug
	GetBySlug(ctx context.Context, slug string, callerID *int64) (*Product, error)

	// Create inserts a product with its images and specifications
	Create(ctx context.Context, product *Product) error

	// Update replaces a product's fields, images and specifications
	Update(ctx context.Context, product *Product) error

	// Delete removes a product and its dependent rows
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a product with the given id exists
	Exists(ctx context.Context, id int64) (bool, error)
}
