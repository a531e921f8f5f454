package review

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/storefront_api/internal/pkg/validator"
)

// ReviewCache defines the caching operations the service relies on
type ReviewCache interface {
	GetReviewsList(ctx context.Context, productID int64, page, limit int, sort string) ([]*domain.Review, int, error)
	SetReviewsList(ctx context.Context, productID int64, page, limit int, sort string, reviews []*domain.Review, total int) error
	InvalidateAllProductCache(ctx context.Context, productID int64) error
}

// EventPublisher defines the interface for publishing review events
type EventPublisher interface {
	PublishReviewEvent(ctx context.Context, eventType string, productID, reviewID int64) error
}

// Service handles review business logic with caching and event publishing.
// All rating aggregation happens inside the repository's transactions; the
// events published here only feed the async reconciler.
type Service struct {
	repo      domain.ReviewRepository
	cache     ReviewCache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	cache ReviewCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
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

// Create creates a review authored by userID
func (s *Service) Create(ctx context.Context, userID int64, review *domain.Review) error {
	review.UserID = userID
	review.Content = strings.TrimSpace(review.Content)

	if err := s.validate.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create review", err)
		}
		return err
	}

	s.invalidateProduct(ctx, review.ProductID)
	s.publishEvent(domain.EventReviewCreated, review.ProductID, review.ID)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review created")

	return nil
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %d", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	return review, nil
}

// ListByProduct retrieves a page of a product's reviews. Anonymous pages are
// served from cache when possible; authenticated reads carry the caller's
// helpful votes and always hit the database.
func (s *Service) ListByProduct(ctx context.Context, productID int64, page, limit int, sort string, callerID *int64) ([]*domain.Review, *domain.Pagination, error) {
	page, limit = clampPage(page, limit)
	sort = domain.NormalizeReviewSort(sort)

	if callerID == nil {
		reviews, total, err := s.cache.GetReviewsList(ctx, productID, page, limit, sort)
		if err == nil {
			s.logger.Debugf("Cache hit for product %d reviews (page=%d, limit=%d, sort=%s)", productID, page, limit, sort)
			return reviews, domain.NewPagination(total, page, limit), nil
		}
	}

	reviews, total, err := s.repo.ListByProduct(ctx, productID, page, limit, sort, callerID)
	if err != nil {
		s.logger.Error("Failed to list reviews by product", err)
		return nil, nil, err
	}

	if callerID == nil {
		if err := s.cache.SetReviewsList(ctx, productID, page, limit, sort, reviews, total); err != nil {
			s.logger.Warnf("Failed to cache reviews for product %d: %v", productID, err)
		}
	}

	return reviews, domain.NewPagination(total, page, limit), nil
}

// ListByUser retrieves a page of the user's own reviews
func (s *Service) ListByUser(ctx context.Context, userID int64, page, limit int, sort string) ([]*domain.Review, *domain.Pagination, error) {
	page, limit = clampPage(page, limit)
	sort = domain.NormalizeReviewSort(sort)

	reviews, total, err := s.repo.ListByUser(ctx, userID, page, limit, sort)
	if err != nil {
		s.logger.Error("Failed to list reviews by user", err)
		return nil, nil, err
	}

	return reviews, domain.NewPagination(total, page, limit), nil
}

// Update rewrites rating and content of a review on behalf of caller.
// Only the author may edit a review; admins can delete but not rewrite
// someone else's words. A review that does not exist reads as ErrNotFound
// before any authorization decision.
func (s *Service) Update(ctx context.Context, caller *domain.User, reviewID int64, rating int, content string) (*domain.Review, error) {
	existing, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if existing.UserID != caller.ID {
		return nil, domain.ErrForbidden
	}

	existing.Rating = rating
	existing.Content = strings.TrimSpace(content)

	if err := s.validate.Struct(existing); err != nil {
		s.logger.Error("Review validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to update review", err)
		return nil, err
	}

	s.invalidateProduct(ctx, existing.ProductID)
	s.publishEvent(domain.EventReviewUpdated, existing.ProductID, existing.ID)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  existing.ID,
		"product_id": existing.ProductID,
		"rating":     existing.Rating,
	}).Info("Review updated")

	return existing, nil
}

// Delete removes a review on behalf of caller, owner or admin
func (s *Service) Delete(ctx context.Context, caller *domain.User, reviewID int64) error {
	existing, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if existing.UserID != caller.ID && !caller.IsAdmin() {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, reviewID, existing.UserID); err != nil {
		s.logger.Error("Failed to delete review", err)
		return err
	}

	s.invalidateProduct(ctx, existing.ProductID)
	s.publishEvent(domain.EventReviewDeleted, existing.ProductID, existing.ID)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  reviewID,
		"product_id": existing.ProductID,
	}).Info("Review deleted")

	return nil
}

// MarkHelpful records voterID's helpful vote and returns the updated count
func (s *Service) MarkHelpful(ctx context.Context, reviewID, voterID int64, isHelpful bool) (int, error) {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.MarkHelpful(ctx, reviewID, voterID, isHelpful)
	if err != nil {
		s.logger.Error("Failed to mark review helpful", err)
		return 0, err
	}

	s.invalidateProduct(ctx, review.ProductID)
	s.publishEvent(domain.EventReviewHelpful, review.ProductID, reviewID)

	return count, nil
}

// invalidateProduct drops the product's cached rating and review pages.
// Stale cache would show incorrect ratings and review lists.
func (s *Service) invalidateProduct(ctx context.Context, productID int64) {
	if err := s.cache.InvalidateAllProductCache(ctx, productID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %d: %v", productID, err)
	}
}

// publishEvent publishes a review event in the background
func (s *Service) publishEvent(eventType string, productID, reviewID int64) {
	go func() {
		if err := s.publisher.PublishReviewEvent(context.Background(), eventType, productID, reviewID); err != nil {
			s.logger.Errorf(err, "Failed to publish %s event for review %d", eventType, reviewID)
		}
	}()
}
