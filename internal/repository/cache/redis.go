package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// RedisCache implements caching for products and reviews
type RedisCache struct {
	client           *redis.Client
	productRatingTTL time.Duration
	reviewsListTTL   time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, productRatingTTL, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:           client,
		productRatingTTL: productRatingTTL,
		reviewsListTTL:   reviewsListTTL,
	}
}

// cachedReviewPage is the stored shape of one review list page.
type cachedReviewPage struct {
	Reviews []*domain.Review `json:"reviews"`
	Total   int              `json:"total"`
}

// Product rating cache keys and methods

func (c *RedisCache) productRatingKey(productID int64) string {
	return fmt.Sprintf("product:%d:rating", productID)
}

// GetProductRating retrieves cached product rating
func (c *RedisCache) GetProductRating(ctx context.Context, productID int64) (float64, error) {
	key := c.productRatingKey(productID)
	val, err := c.client.Get(ctx, key).Float64()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return val, nil
}

// SetProductRating stores product rating in cache
func (c *RedisCache) SetProductRating(ctx context.Context, productID int64, rating float64) error {
	key := c.productRatingKey(productID)
	return c.client.Set(ctx, key, rating, c.productRatingTTL).Err()
}

// InvalidateProductRating removes product rating from cache
func (c *RedisCache) InvalidateProductRating(ctx context.Context, productID int64) error {
	key := c.productRatingKey(productID)
	return c.client.Del(ctx, key).Err()
}

// Product reviews list cache keys and methods.
// Only anonymous pages are cached; authenticated reads carry per-viewer
// vote flags and always hit the database.

func (c *RedisCache) reviewsListKey(productID int64, page, limit int, sort string) string {
	return fmt.Sprintf("product:%d:reviews:%s:page:%d:limit:%d", productID, sort, page, limit)
}

func (c *RedisCache) productCacheKeysSet(productID int64) string {
	return fmt.Sprintf("product:%d:cache_keys", productID)
}

// GetReviewsList retrieves a cached reviews page for a product
func (c *RedisCache) GetReviewsList(ctx context.Context, productID int64, page, limit int, sort string) ([]*domain.Review, int, error) {
	key := c.reviewsListKey(productID, page, limit, sort)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, err
	}

	var cached cachedReviewPage
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, 0, err
	}

	return cached.Reviews, cached.Total, nil
}

// SetReviewsList stores a reviews page in cache and tracks the key in a SET
func (c *RedisCache) SetReviewsList(ctx context.Context, productID int64, page, limit int, sort string, reviews []*domain.Review, total int) error {
	key := c.reviewsListKey(productID, page, limit, sort)
	trackingKey := c.productCacheKeysSet(productID)

	data, err := json.Marshal(cachedReviewPage{Reviews: reviews, Total: total})
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.reviewsListTTL)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, c.reviewsListTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateReviewsList removes all cached review pages for a product using SET-based tracking
func (c *RedisCache) InvalidateReviewsList(ctx context.Context, productID int64) error {
	trackingKey := c.productCacheKeysSet(productID)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	if len(keys) > 0 {
		keys = append(keys, trackingKey)
		return c.client.Unlink(ctx, keys...).Err()
	}

	return nil
}

// InvalidateAllProductCache invalidates all cache entries for a product
func (c *RedisCache) InvalidateAllProductCache(ctx context.Context, productID int64) error {
	if err := c.InvalidateProductRating(ctx, productID); err != nil && err != redis.Nil {
		return err
	}

	if err := c.InvalidateReviewsList(ctx, productID); err != nil && err != redis.Nil {
		return err
	}

	return nil
}
