package bookmark

import (
	"context"
	"errors"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// Service handles bookmark business logic
type Service struct {
	repo     domain.BookmarkRepository
	products domain.ProductRepository
	logger   *logger.Logger
}

// NewService creates a new bookmark service
func NewService(repo domain.BookmarkRepository, products domain.ProductRepository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   log,
	}
}

// Toggle flips the user's bookmark on a product and reports the new state
func (s *Service) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to check product existence", err)
		return false, err
	}
	if !exists {
		return false, domain.ErrNotFound
	}

	bookmarked, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		s.logger.Error("Failed to check bookmark", err)
		return false, err
	}

	if bookmarked {
		if err := s.repo.Remove(ctx, userID, productID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to remove bookmark", err)
			return false, err
		}
		return false, nil
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		s.logger.Error("Failed to add bookmark", err)
		return false, err
	}
	return true, nil
}

// ListProducts retrieves a page of the user's bookmarked products
func (s *Service) ListProducts(ctx context.Context, userID int64, page, limit int) ([]*domain.Product, *domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	products, total, err := s.repo.ListProducts(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list bookmarked products", err)
		return nil, nil, err
	}

	return products, domain.NewPagination(total, page, limit), nil
}
