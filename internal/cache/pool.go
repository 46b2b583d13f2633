package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowcart/promotion-service/internal/domain"
)

const activePoolKey = "promotion:active-pool"

// PoolCache is a Redis-backed TTL cache for the active promotion pool. It is
// used by read paths only; exclusivity checks and mutations always read the
// repository directly.
type PoolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPoolCache creates a new Redis-backed pool cache.
func NewPoolCache(client *redis.Client, ttl time.Duration) *PoolCache {
	return &PoolCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the cached active promotion pool. The second return is false
// on a cache miss.
func (c *PoolCache) Get(ctx context.Context) (*domain.ActivePromotions, bool, error) {
	data, err := c.client.Get(ctx, activePoolKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get active pool: %w", err)
	}

	var pool domain.ActivePromotions
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, false, fmt.Errorf("unmarshal active pool: %w", err)
	}

	return &pool, true, nil
}

// Set stores the active promotion pool with the configured TTL.
func (c *PoolCache) Set(ctx context.Context, pool *domain.ActivePromotions) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal active pool: %w", err)
	}

	if err := c.client.Set(ctx, activePoolKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set active pool: %w", err)
	}

	return nil
}

// Invalidate drops the cached pool so the next read rebuilds it. Called after
// every promotion mutation.
func (c *PoolCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activePoolKey).Err(); err != nil {
		return fmt.Errorf("redis del active pool: %w", err)
	}
	return nil
}
