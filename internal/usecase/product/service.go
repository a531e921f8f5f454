package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/pkg/slug"
	pkgvalidator "github.com/Pesokrava/storefront_api/internal/pkg/validator"
)

// RatingCache defines the rating caching operations the service relies on
type RatingCache interface {
	GetProductRating(ctx context.Context, productID int64) (float64, error)
	SetProductRating(ctx context.Context, productID int64, rating float64) error
}

// Service handles catalog business logic
type Service struct {
	repo       domain.ProductRepository
	categories domain.CategoryRepository
	ratings    RatingCache
	validate   *validator.Validate
	logger     *logger.Logger
}

// NewService creates a new product service
func NewService(
	repo domain.ProductRepository,
	categories domain.CategoryRepository,
	ratings RatingCache,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		ratings:    ratings,
		validate:   pkgvalidator.Get(),
		logger:     log,
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return page, limit
}

// List retrieves a filtered catalog page
func (s *Service) List(ctx context.Context, page, limit int, filter domain.ProductFilter) ([]*domain.Product, *domain.Pagination, error) {
	page, limit = clampPage(page, limit)

	products, total, err := s.repo.List(ctx, page, limit, filter)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, nil, err
	}

	return products, domain.NewPagination(total, page, limit), nil
}

// GetByID retrieves a product; callerID resolves the viewer's flags
func (s *Service) GetByID(ctx context.Context, id int64, callerID *int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id, callerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}
	s.overlayRating(ctx, product)
	return product, nil
}

// GetBySlug retrieves a product by slug; callerID resolves the viewer's flags
func (s *Service) GetBySlug(ctx context.Context, productSlug string, callerID *int64) (*domain.Product, error) {
	product, err := s.repo.GetBySlug(ctx, productSlug, callerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get product by slug", err)
		}
		return nil, err
	}
	s.overlayRating(ctx, product)
	return product, nil
}

// overlayRating serves the product's rating read-through from the cache.
// Review mutations invalidate the key, so a hit is at most one mutation old;
// on a miss the database value backfills the cache for the TTL window. Cache
// failures fall back to the database value.
func (s *Service) overlayRating(ctx context.Context, product *domain.Product) {
	rating, err := s.ratings.GetProductRating(ctx, product.ID)
	if err == nil {
		product.Rating = &rating
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Failed to read rating cache for product %d: %v", product.ID, err)
		return
	}

	if product.Rating != nil {
		if err := s.ratings.SetProductRating(ctx, product.ID, *product.Rating); err != nil {
			s.logger.Warnf("Failed to cache rating for product %d: %v", product.ID, err)
		}
	}
}

// Create inserts a product. The slug derives from the name; a taken slug gets
// a timestamp suffix on one retry.
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	product.Name = strings.TrimSpace(product.Name)

	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}

	product.Slug = slug.Make(product.Name)

	err := s.repo.Create(ctx, product)
	if errors.Is(err, domain.ErrAlreadyExists) {
		product.Slug = fmt.Sprintf("%s-%d", product.Slug, time.Now().UnixMilli())
		err = s.repo.Create(ctx, product)
	}
	if err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product created")

	return nil
}

// Update replaces a product's fields, keeping the slug in step with the name
func (s *Service) Update(ctx context.Context, product *domain.Product) error {
	product.Name = strings.TrimSpace(product.Name)

	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}

	product.Slug = slug.Make(product.Name)

	if err := s.repo.Update(ctx, product); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to update product", err)
		}
		return err
	}

	return nil
}

// Delete removes a product and its reviews, images and bookmarks
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete product", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted")

	return nil
}

// checkCategory verifies the referenced category exists. A nil category is
// allowed; products may be uncategorized.
func (s *Service) checkCategory(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}

	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidInput
		}
		return err
	}

	return nil
}
