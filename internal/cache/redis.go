// Package cache keeps a local copy of trips in Redis so a planning session can
// start when the persistence API is unreachable. The remote API stays the
// source of truth; the planner reads the cache only after a failed load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/itinerary/internal/domain"
)

// DefaultPrefix namespaces the cache keys.
const DefaultPrefix = "itinerary:"

// RedisCache stores trip documents as JSON strings under {prefix}trip:{id}.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) Option {
	return func(c *RedisCache) { c.prefix = p }
}

// WithTTL expires cached trips after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(c *RedisCache) { c.ttl = d }
}

// NewRedisCache constructs a cache backed by rdb. Pass *redis.Client in
// production; any redis.Cmdable works.
func NewRedisCache(rdb redis.Cmdable, opts ...Option) *RedisCache {
	c := &RedisCache{rdb: rdb, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached trip. Returns domain.ErrNotFound on a cache miss.
func (c *RedisCache) Load(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Trip{}, fmt.Errorf("cache.RedisCache.Load: %w", domain.ErrNotFound)
		}
		return domain.Trip{}, fmt.Errorf("cache.RedisCache.Load: %w", err)
	}

	var trip domain.Trip
	if err := json.Unmarshal(raw, &trip); err != nil {
		return domain.Trip{}, fmt.Errorf("cache.RedisCache.Load: %w: %v", domain.ErrDecode, err)
	}
	return trip, nil
}

// Store writes trip to the cache, replacing any previous copy.
func (c *RedisCache) Store(ctx context.Context, trip domain.Trip) error {
	raw, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("cache.RedisCache.Store: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(trip.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.RedisCache.Store: %w", err)
	}
	return nil
}

// Delete drops the cached copy of a trip. Missing keys are not an error.
func (c *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache.RedisCache.Delete: %w", err)
	}
	return nil
}

func (c *RedisCache) key(id uuid.UUID) string {
	return c.prefix + "trip:" + id.String()
}
