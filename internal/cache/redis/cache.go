// Package redis provides a Redis-backed result cache. Unlike the
// in-memory backend, the configured TTL is enforced natively.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/treeline/internal/domain"
)

// Cache stores formatted impact results in Redis.
type Cache struct {
	client  *redis.Client
	maxSize int
}

var _ domain.ResultCache = (*Cache)(nil)

// New creates a Redis-backed result cache.
func New(client *redis.Client, maxSize int) *Cache {
	return &Cache{
		client:  client,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result, or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) (*domain.ImpactResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var result domain.ImpactResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}

	return &result, nil
}

// Set stores a result with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, result *domain.ImpactResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

// Stats reports the backend type, current size and configured cap.
func (c *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	size, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("cache stats failed: %w", err)
	}

	return domain.CacheStats{
		Type:    "redis",
		Size:    int(size),
		MaxSize: c.maxSize,
	}, nil
}
