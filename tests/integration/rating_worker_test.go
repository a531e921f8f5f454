//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/database"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	"github.com/Pesokrava/storefront_api/internal/repository/postgres"
	"github.com/Pesokrava/storefront_api/internal/worker"
)

type workerFixture struct {
	nc        *nats.Conn
	worker    *worker.RatingWorker
	products  *postgres.ProductRepository
	reviews   *postgres.ReviewRepository
	users     *postgres.UserRepository
	productID int64
	userIDs   []int64
}

func setupWorkerFixture(t *testing.T, productName string, reviewerCount int) *workerFixture {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.New(cfg.Env)

	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	nc, err := nats.Connect(cfg.NATS.URL)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	calculator := worker.NewCalculator(db, log)
	ratingWorker := worker.NewRatingWorker(calculator, log)

	_, err = nc.Subscribe("reviews.events", func(msg *nats.Msg) {
		_ = ratingWorker.HandleEvent(msg.Data)
	})
	require.NoError(t, err)

	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	userRepo := postgres.NewUserRepository(db)

	ctx := context.Background()
	suffix := time.Now().UnixNano()

	product := &domain.Product{
		Name:  fmt.Sprintf("%s %d", productName, suffix),
		Slug:  fmt.Sprintf("worker-test-%d", suffix),
		Price: 99.99,
	}
	require.NoError(t, productRepo.Create(ctx, product))

	userIDs := make([]int64, reviewerCount)
	for i := range userIDs {
		user := &domain.User{
			Name:         fmt.Sprintf("Reviewer %d", i),
			Email:        fmt.Sprintf("reviewer-%d-%d@example.com", i, suffix),
			PasswordHash: "not-a-real-hash",
			Role:         domain.RoleUser,
		}
		require.NoError(t, userRepo.Create(ctx, user))
		userIDs[i] = user.ID
	}

	fixture := &workerFixture{
		nc:        nc,
		worker:    ratingWorker,
		products:  productRepo,
		reviews:   reviewRepo,
		users:     userRepo,
		productID: product.ID,
		userIDs:   userIDs,
	}

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ratingWorker.Shutdown(shutdownCtx)

		cleanup := context.Background()
		_ = productRepo.Delete(cleanup, product.ID)
		for _, id := range userIDs {
			_ = userRepo.Delete(cleanup, id)
		}
	})

	return fixture
}

func (f *workerFixture) publishReviewCreated(t *testing.T, reviewID int64) {
	t.Helper()

	event := domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: f.productID,
		ReviewID:  reviewID,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	require.NoError(t, f.nc.Publish("reviews.events", data))
}

func TestRatingWorker_EndToEnd(t *testing.T) {
	fixture := setupWorkerFixture(t, "Rating Worker Product", 5)
	ctx := context.Background()

	// One review per user; average should be 4.4
	ratings := []int{5, 4, 5, 3, 5}
	for i, rating := range ratings {
		review := &domain.Review{
			ProductID: fixture.productID,
			UserID:    fixture.userIDs[i],
			Rating:    rating,
			Content:   "Worker reconciliation test",
		}
		require.NoError(t, fixture.reviews.Create(ctx, review))
		fixture.publishReviewCreated(t, review.ID)
	}

	// Wait for event processing (debounce window + processing time)
	time.Sleep(2 * time.Second)

	updated, err := fixture.products.GetByID(ctx, fixture.productID, nil)
	require.NoError(t, err)

	require.NotNil(t, updated.Rating)
	assert.InDelta(t, 4.4, *updated.Rating, 0.01)
	assert.Equal(t, 5, updated.ReviewCount)
}

func TestRatingWorker_Debouncing(t *testing.T) {
	fixture := setupWorkerFixture(t, "Popular Product", 5)
	ctx := context.Background()

	// Ratings 1..5; average 3.0
	for i := 0; i < 5; i++ {
		review := &domain.Review{
			ProductID: fixture.productID,
			UserID:    fixture.userIDs[i],
			Rating:    i + 1,
			Content:   "Debounce test",
		}
		require.NoError(t, fixture.reviews.Create(ctx, review))

		// Publish a burst of duplicate events per review
		for j := 0; j < 4; j++ {
			fixture.publishReviewCreated(t, review.ID)
		}
	}

	// The burst collapses into at most a couple of pending updates
	time.Sleep(500 * time.Millisecond)
	assert.LessOrEqual(t, fixture.worker.GetPendingCount(), 2)

	// Wait for final processing
	time.Sleep(2 * time.Second)

	updated, err := fixture.products.GetByID(ctx, fixture.productID, nil)
	require.NoError(t, err)

	require.NotNil(t, updated.Rating)
	assert.InDelta(t, 3.0, *updated.Rating, 0.01)
}
