package user

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/storefront_api/internal/pkg/validator"
)

// Service handles account administration and profile logic
type Service struct {
	repo      domain.UserRepository
	reviews   domain.ReviewRepository
	bookmarks domain.BookmarkRepository
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new user service
func NewService(
	repo domain.UserRepository,
	reviews domain.ReviewRepository,
	bookmarks domain.BookmarkRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		reviews:   reviews,
		bookmarks: bookmarks,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// Profile is a user together with activity counts
type Profile struct {
	User          *domain.User `json:"user"`
	ReviewCount   int          `json:"review_count"`
	BookmarkCount int          `json:"bookmark_count"`
}

// GetProfile retrieves a user with their review and bookmark counts
func (s *Service) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviewCount, err := s.reviews.CountByUser(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count reviews", err)
		return nil, err
	}

	bookmarkCount, err := s.bookmarks.CountByUser(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count bookmarks", err)
		return nil, err
	}

	return &Profile{User: user, ReviewCount: reviewCount, BookmarkCount: bookmarkCount}, nil
}

// UpdateProfile updates the user's own name and avatar
func (s *Service) UpdateProfile(ctx context.Context, id int64, name string, avatar *string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(name)
	user.Avatar = avatar

	if err := s.validate.Struct(user); err != nil {
		return nil, domain.ErrInvalidInput
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", err)
		return nil, err
	}

	return user, nil
}

// List retrieves a page of users for administration
func (s *Service) List(ctx context.Context, page, limit int, search string) ([]*domain.User, *domain.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit, search)
	if err != nil {
		s.logger.Error("Failed to list users", err)
		return nil, nil, err
	}

	return users, domain.NewPagination(total, page, limit), nil
}

// SetRole changes a user's role; only admin and user are valid
func (s *Service) SetRole(ctx context.Context, id int64, role string) (*domain.User, error) {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user role", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"role":    role,
	}).Info("User role changed")

	return user, nil
}

// Delete removes a user account. An admin cannot delete their own account
// through administration; that guard lives in the handler.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete user", err)
		}
		return err
	}
	return nil
}
