package category

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/pkg/slug"
	pkgvalidator "github.com/Pesokrava/storefront_api/internal/pkg/validator"
)

// Service handles category business logic
type Service struct {
	repo     domain.CategoryRepository
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new category service
func NewService(repo domain.CategoryRepository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// List retrieves all categories
func (s *Service) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

// GetByID retrieves a category by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a category; the slug derives from the name
func (s *Service) Create(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)

	if err := s.validate.Struct(category); err != nil {
		return domain.ErrInvalidInput
	}

	category.Slug = slug.Make(category.Name)

	if err := s.repo.Create(ctx, category); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create category", err)
		}
		return err
	}

	return nil
}

// Update updates a category, keeping the slug in step with the name
func (s *Service) Update(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)

	if err := s.validate.Struct(category); err != nil {
		return domain.ErrInvalidInput
	}

	category.Slug = slug.Make(category.Name)

	if err := s.repo.Update(ctx, category); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to update category", err)
		}
		return err
	}

	return nil
}

// Delete removes a category; ErrConflict when products still reference it
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("Failed to delete category", err)
		}
		return err
	}
	return nil
}
