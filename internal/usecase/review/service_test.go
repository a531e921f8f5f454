package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID int64, page, limit int, sort string, callerID *int64) ([]*domain.Review, int, error) {
	args := m.Called(ctx, productID, page, limit, sort, callerID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) ListByUser(ctx context.Context, userID int64, page, limit int, sort string) ([]*domain.Review, int, error) {
	args := m.Called(ctx, userID, page, limit, sort)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id, ownerID int64) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockReviewRepository) MarkHelpful(ctx context.Context, reviewID, voterID int64, isHelpful bool) (int, error) {
	args := m.Called(ctx, reviewID, voterID, isHelpful)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockReviewCache is a mock implementation of ReviewCache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetReviewsList(ctx context.Context, productID int64, page, limit int, sort string) ([]*domain.Review, int, error) {
	args := m.Called(ctx, productID, page, limit, sort)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewCache) SetReviewsList(ctx context.Context, productID int64, page, limit int, sort string, reviews []*domain.Review, total int) error {
	args := m.Called(ctx, productID, page, limit, sort, reviews, total)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateAllProductCache(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishReviewEvent(ctx context.Context, eventType string, productID, reviewID int64) error {
	args := m.Called(ctx, eventType, productID, reviewID)
	return args.Error(0)
}

func newTestService() (*Service, *MockReviewRepository, *MockReviewCache, *MockEventPublisher) {
	mockRepo := new(MockReviewRepository)
	mockCache := new(MockReviewCache)
	mockPublisher := new(MockEventPublisher)
	log := logger.New("test")
	return NewService(mockRepo, mockCache, mockPublisher, log), mockRepo, mockCache, mockPublisher
}

func TestService_Create_Success(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    5,
		Content:   "Great product!",
	}

	mockRepo.On("Create", mock.Anything, review).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Review).ID = 7
	}).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewCreated, int64(42), int64(7)).Return(nil)

	err := service.Create(context.Background(), 3, review)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), review.UserID)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Create_TrimsContent(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    4,
		Content:   "  solid value  ",
	}

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Content == "solid value"
	})).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewCreated, int64(42), mock.Anything).Return(nil)

	err := service.Create(context.Background(), 3, review)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Create_InvalidRating(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    6,
		Content:   "Too enthusiastic",
	}

	err := service.Create(context.Background(), 3, review)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, err)
	mockRepo.AssertNotCalled(t, "Create")
	mockCache.AssertNotCalled(t, "InvalidateAllProductCache")
}

func TestService_Create_EmptyContent(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    3,
		Content:   "   ",
	}

	err := service.Create(context.Background(), 3, review)

	assert.Equal(t, domain.ErrInvalidInput, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestService_Create_Duplicate(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    5,
		Content:   "Second attempt",
	}

	mockRepo.On("Create", mock.Anything, review).Return(domain.ErrAlreadyExists)

	err := service.Create(context.Background(), 3, review)

	assert.Equal(t, domain.ErrAlreadyExists, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "InvalidateAllProductCache")
}

func TestService_Create_CacheInvalidationFailure(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	review := &domain.Review{
		ProductID: 42,
		Rating:    5,
		Content:   "Great product!",
	}

	mockRepo.On("Create", mock.Anything, review).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(assert.AnError)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewCreated, int64(42), mock.Anything).Return(nil)

	// Cache failure should not prevent operation from succeeding
	err := service.Create(context.Background(), 3, review)

	assert.NoError(t, err, "Operation should succeed even when cache fails")
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_ListByProduct_AnonymousCacheHit(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	cached := []*domain.Review{
		{ID: 1, ProductID: 42, Rating: 5},
		{ID: 2, ProductID: 42, Rating: 4},
	}

	mockCache.On("GetReviewsList", mock.Anything, int64(42), 1, 10, domain.SortDateDesc).Return(cached, 2, nil)

	reviews, pagination, err := service.ListByProduct(context.Background(), 42, 1, 10, "", nil)

	assert.NoError(t, err)
	assert.Equal(t, cached, reviews)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, 1, pagination.TotalPages)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "ListByProduct")
}

func TestService_ListByProduct_AnonymousCacheMiss(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	fromDB := []*domain.Review{
		{ID: 1, ProductID: 42, Rating: 5},
	}

	mockCache.On("GetReviewsList", mock.Anything, int64(42), 1, 10, domain.SortDateDesc).Return(nil, 0, assert.AnError)
	mockRepo.On("ListByProduct", mock.Anything, int64(42), 1, 10, domain.SortDateDesc, (*int64)(nil)).Return(fromDB, 1, nil)
	mockCache.On("SetReviewsList", mock.Anything, int64(42), 1, 10, domain.SortDateDesc, fromDB, 1).Return(nil)

	reviews, pagination, err := service.ListByProduct(context.Background(), 42, 1, 10, "", nil)

	assert.NoError(t, err)
	assert.Equal(t, fromDB, reviews)
	assert.Equal(t, 1, pagination.Total)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_ListByProduct_AuthenticatedSkipsCache(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	callerID := int64(9)
	fromDB := []*domain.Review{
		{ID: 1, ProductID: 42, Rating: 5, ViewerFoundHelpful: true},
	}

	mockRepo.On("ListByProduct", mock.Anything, int64(42), 1, 10, domain.SortDateDesc, &callerID).Return(fromDB, 1, nil)

	reviews, _, err := service.ListByProduct(context.Background(), 42, 1, 10, "", &callerID)

	assert.NoError(t, err)
	assert.Equal(t, fromDB, reviews)
	mockRepo.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "GetReviewsList")
	mockCache.AssertNotCalled(t, "SetReviewsList")
}

func TestService_ListByProduct_ClampsPagination(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	callerID := int64(9)

	// page 0 and limit 500 fall back to defaults, unknown sort falls back to date_desc
	mockRepo.On("ListByProduct", mock.Anything, int64(42), 1, 10, domain.SortDateDesc, &callerID).Return([]*domain.Review{}, 0, nil)

	_, pagination, err := service.ListByProduct(context.Background(), 42, 0, 500, "bogus", &callerID)

	assert.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.Limit)
	assert.Equal(t, 0, pagination.TotalPages)
	mockRepo.AssertExpectations(t)
}

func TestService_Update_NotFound(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	caller := &domain.User{ID: 3, Role: domain.RoleUser}

	mockRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)

	_, err := service.Update(context.Background(), caller, 99, 4, "edited")

	assert.Equal(t, domain.ErrNotFound, err)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Update_ForbiddenForNonOwner(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	caller := &domain.User{ID: 3, Role: domain.RoleUser}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8, Rating: 5, Content: "original"}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)

	_, err := service.Update(context.Background(), caller, 7, 4, "edited")

	assert.Equal(t, domain.ErrForbidden, err)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Update_OwnerSuccess(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	caller := &domain.User{ID: 8, Role: domain.RoleUser}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8, Rating: 5, Content: "original"}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ID == 7 && r.Rating == 3 && r.Content == "edited"
	})).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewUpdated, int64(42), int64(7)).Return(nil)

	updated, err := service.Update(context.Background(), caller, 7, 3, "edited")

	assert.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Update_ForbiddenForAdminNonOwner(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	// Admins may delete any review but only the author can rewrite one
	admin := &domain.User{ID: 99, Role: domain.RoleAdmin}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 7, Rating: 5, Content: "original"}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)

	_, err := service.Update(context.Background(), admin, 7, 2, "moderated")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Update_InvalidRating(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	caller := &domain.User{ID: 8, Role: domain.RoleUser}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8, Rating: 5, Content: "original"}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)

	_, err := service.Update(context.Background(), caller, 7, 0, "edited")

	assert.Equal(t, domain.ErrInvalidInput, err)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Delete_OwnerSuccess(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	caller := &domain.User{ID: 8, Role: domain.RoleUser}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8, Rating: 5, Content: "bye"}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)
	mockRepo.On("Delete", mock.Anything, int64(7), int64(8)).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewDeleted, int64(42), int64(7)).Return(nil)

	err := service.Delete(context.Background(), caller, 7)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Delete_ForbiddenForNonOwner(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	caller := &domain.User{ID: 3, Role: domain.RoleUser}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)

	err := service.Delete(context.Background(), caller, 7)

	assert.Equal(t, domain.ErrForbidden, err)
	mockRepo.AssertNotCalled(t, "Delete")
}

func TestService_Delete_AdminOverride(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}
	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)
	mockRepo.On("Delete", mock.Anything, int64(7), int64(8)).Return(nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewDeleted, int64(42), int64(7)).Return(nil)

	err := service.Delete(context.Background(), admin, 7)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_MarkHelpful_Success(t *testing.T) {
	service, mockRepo, mockCache, mockPublisher := newTestService()

	existing := &domain.Review{ID: 7, ProductID: 42, UserID: 8}

	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(existing, nil)
	mockRepo.On("MarkHelpful", mock.Anything, int64(7), int64(3), true).Return(5, nil)
	mockCache.On("InvalidateAllProductCache", mock.Anything, int64(42)).Return(nil)
	mockPublisher.On("PublishReviewEvent", mock.Anything, domain.EventReviewHelpful, int64(42), int64(7)).Return(nil)

	count, err := service.MarkHelpful(context.Background(), 7, 3, true)

	assert.NoError(t, err)
	assert.Equal(t, 5, count)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_MarkHelpful_ReviewNotFound(t *testing.T) {
	service, mockRepo, mockCache, _ := newTestService()

	mockRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)

	_, err := service.MarkHelpful(context.Background(), 99, 3, true)

	assert.Equal(t, domain.ErrNotFound, err)
	mockRepo.AssertNotCalled(t, "MarkHelpful")
	mockCache.AssertNotCalled(t, "InvalidateAllProductCache")
}

func TestService_ListByUser_Success(t *testing.T) {
	service, mockRepo, _, _ := newTestService()

	mine := []*domain.Review{
		{ID: 1, ProductID: 42, UserID: 3, Rating: 5},
		{ID: 2, ProductID: 43, UserID: 3, Rating: 2},
	}

	mockRepo.On("ListByUser", mock.Anything, int64(3), 1, 10, domain.SortDateDesc).Return(mine, 2, nil)

	reviews, pagination, err := service.ListByUser(context.Background(), 3, 1, 10, "")

	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, 2, pagination.Total)
	mockRepo.AssertExpectations(t)
}
