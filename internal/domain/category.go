package domain

import (
	"context"
	"time"
)

// Category groups products in the catalog.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,min=1,max=100"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// List retrieves all categories ordered by name
	List(ctx context.Context) ([]*Category, error)

	// GetByID retrieves a category by ID
	GetByID(ctx context.Context, id int64) (*Category, error)

	// Create inserts a new category; ErrAlreadyExists on a duplicate slug
	Create(ctx context.Context, category *Category) error

	// Update updates an existing category
	Update(ctx context.Context, category *Category) error

	// Delete removes a category; ErrConflict when products still reference it
	Delete(ctx context.Context, id int64) error

	// HasProducts reports whether any product references the category
	HasProducts(ctx context.Context, id int64) (bool, error)
}
