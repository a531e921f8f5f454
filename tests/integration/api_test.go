//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/storefront_api/internal/delivery/http"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/handler"
	pkgauth "github.com/Pesokrava/storefront_api/internal/pkg/auth"
	"github.com/Pesokrava/storefront_api/internal/pkg/cache"
	"github.com/Pesokrava/storefront_api/internal/pkg/database"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/storefront_api/internal/repository/cache"
	"github.com/Pesokrava/storefront_api/internal/repository/postgres"
	"github.com/Pesokrava/storefront_api/internal/usecase/auth"
	"github.com/Pesokrava/storefront_api/internal/usecase/bookmark"
	"github.com/Pesokrava/storefront_api/internal/usecase/category"
	"github.com/Pesokrava/storefront_api/internal/usecase/product"
	"github.com/Pesokrava/storefront_api/internal/usecase/review"
	"github.com/Pesokrava/storefront_api/internal/usecase/user"
)

func setupTestServer(t *testing.T) (http.Handler, *sqlx.DB) {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.New(cfg.Env)

	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	bookmarkRepo := postgres.NewBookmarkRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductRatingTTL,
		cfg.Cache.ReviewsListTTL,
	)

	tokens := pkgauth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	authService := auth.NewService(userRepo, tokens, log, cfg.Auth.BcryptCost, cfg.Auth.ResetTokenTTL)
	productService := product.NewService(productRepo, categoryRepo, redisCache, log)
	reviewService := review.NewService(reviewRepo, redisCache, publisher, log)
	categoryService := category.NewService(categoryRepo, log)
	bookmarkService := bookmark.NewService(bookmarkRepo, productRepo, log)
	userService := user.NewService(userRepo, reviewRepo, bookmarkRepo, log)

	router := httpDelivery.NewRouter(
		handler.NewAuthHandler(authService, userService, log),
		handler.NewProductHandler(productService, log),
		handler.NewReviewHandler(reviewService, log),
		handler.NewCategoryHandler(categoryService, log),
		handler.NewBookmarkHandler(bookmarkService, log),
		handler.NewUserHandler(userService, log),
		tokens,
		userRepo,
		cfg,
		log,
	)

	return router.Setup(), db
}

type apiClient struct {
	t      *testing.T
	server http.Handler
}

func (c *apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	c.server.ServeHTTP(w, req)
	return w
}

func (c *apiClient) decode(w *httptest.ResponseRecorder) map[string]any {
	c.t.Helper()
	var response map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// register creates an account and returns its id and token
func (c *apiClient) register(name, email string) (int64, string) {
	c.t.Helper()

	w := c.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":            name,
		"email":           email,
		"password":        "password123",
		"confirmPassword": "password123",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())

	response := c.decode(w)
	userData := response["user"].(map[string]any)
	return int64(userData["id"].(float64)), response["token"].(string)
}

func TestReviewLifecycle(t *testing.T) {
	server, db := setupTestServer(t)
	client := &apiClient{t: t, server: server}

	suffix := time.Now().UnixNano()

	ownerID, ownerToken := client.register("Owner", fmt.Sprintf("owner-%d@example.com", suffix))
	otherID, otherToken := client.register("Other", fmt.Sprintf("other-%d@example.com", suffix))
	adminID, adminToken := client.register("Admin", fmt.Sprintf("admin-%d@example.com", suffix))

	// Promote the third account; the middleware reads the role per request,
	// so the existing token picks it up immediately.
	_, err := db.Exec(`UPDATE users SET role = 'admin' WHERE id = $1`, adminID)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM users WHERE id IN ($1, $2, $3)`, ownerID, otherID, adminID)
	})

	// Admin creates a product
	w := client.do(http.MethodPost, "/api/v1/products", adminToken, map[string]any{
		"name":  fmt.Sprintf("Test Product %d", suffix),
		"price": 99.99,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productID := int64(client.decode(w)["id"].(float64))

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM products WHERE id = $1`, productID)
	})

	productPath := fmt.Sprintf("/api/v1/products/%d", productID)
	reviewsPath := productPath + "/reviews"

	// Fresh product: no rating yet
	w = client.do(http.MethodGet, productPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, client.decode(w)["rating"])

	// Owner posts a review; the aggregate updates in the same transaction
	w = client.do(http.MethodPost, reviewsPath, ownerToken, map[string]any{
		"rating":  5,
		"content": "Excellent product",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reviewID := int64(client.decode(w)["id"].(float64))

	w = client.do(http.MethodGet, productPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	productData := client.decode(w)
	assert.Equal(t, 5.0, productData["rating"])
	assert.EqualValues(t, 1, productData["review_count"])

	// A second review from the same user is rejected
	w = client.do(http.MethodPost, reviewsPath, ownerToken, map[string]any{
		"rating":  4,
		"content": "Changed my mind",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	reviewPath := fmt.Sprintf("/api/v1/reviews/%d", reviewID)

	// Someone else cannot edit the review
	w = client.do(http.MethodPut, reviewPath, otherToken, map[string]any{
		"rating":  1,
		"content": "sabotage",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner can; the aggregate follows
	w = client.do(http.MethodPut, reviewPath, ownerToken, map[string]any{
		"rating":  3,
		"content": "Average after a week of use",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = client.do(http.MethodGet, productPath, "", nil)
	assert.Equal(t, 3.0, client.decode(w)["rating"])

	// Another user finds the review helpful
	w = client.do(http.MethodPost, reviewPath+"/helpful", otherToken, map[string]any{
		"isHelpful": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, client.decode(w)["helpfulCount"])

	// The authenticated list carries the voter's flag
	w = client.do(http.MethodGet, reviewsPath, otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviews := client.decode(w)["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, true, reviews[0].(map[string]any)["is_helpful"])

	// Non-owner cannot delete
	w = client.do(http.MethodDelete, reviewPath, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin can; the rating returns to its empty state
	w = client.do(http.MethodDelete, reviewPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = client.do(http.MethodGet, productPath, "", nil)
	productData = client.decode(w)
	assert.Nil(t, productData["rating"])
	assert.EqualValues(t, 0, productData["review_count"])
}

func TestBookmarkToggle(t *testing.T) {
	server, db := setupTestServer(t)
	client := &apiClient{t: t, server: server}

	suffix := time.Now().UnixNano()

	userID, userToken := client.register("Collector", fmt.Sprintf("collector-%d@example.com", suffix))
	adminID, adminToken := client.register("Curator", fmt.Sprintf("curator-%d@example.com", suffix))

	_, err := db.Exec(`UPDATE users SET role = 'admin' WHERE id = $1`, adminID)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM users WHERE id IN ($1, $2)`, userID, adminID)
	})

	w := client.do(http.MethodPost, "/api/v1/products", adminToken, map[string]any{
		"name":  fmt.Sprintf("Bookmarkable %d", suffix),
		"price": 19.99,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productID := int64(client.decode(w)["id"].(float64))

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM products WHERE id = $1`, productID)
	})

	bookmarkPath := fmt.Sprintf("/api/v1/products/%d/bookmark", productID)

	// Anonymous callers cannot bookmark
	w = client.do(http.MethodPost, bookmarkPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// First toggle adds
	w = client.do(http.MethodPost, bookmarkPath, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, client.decode(w)["bookmarked"])

	// The bookmark list carries the product
	w = client.do(http.MethodGet, "/api/v1/bookmarks", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := client.decode(w)["products"].([]any)
	require.Len(t, products, 1)
	assert.EqualValues(t, productID, products[0].(map[string]any)["id"])

	// Second toggle removes
	w = client.do(http.MethodPost, bookmarkPath, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, client.decode(w)["bookmarked"])
}
