// Package cache is a Redis-backed cache-aside layer. A Cache built without a
// client is a valid always-miss cache, so callers never branch on Redis
// availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides caching operations using Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  *Stats
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Enabled   bool    `json:"enabled"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// New creates a cache; client may be nil.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		stats:  &Stats{},
	}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get loads key into dest and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		if c != nil {
			atomic.AddUint64(&c.stats.Misses, 1)
		}
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			return false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}

	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	atomic.AddUint64(&c.stats.Deletes, 1)
	return nil
}

// DeletePattern removes all keys matching a pattern and returns how many
// were deleted.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+pattern, 100).Result()
		if err != nil {
			atomic.AddUint64(&c.stats.Errors, 1)
			return deleted, fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				atomic.AddUint64(&c.stats.Errors, 1)
				return deleted, fmt.Errorf("cache delete error: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	atomic.AddUint64(&c.stats.Deletes, uint64(deleted))
	return deleted, nil
}

// GetStats returns the current cache statistics.
func (c *Cache) GetStats() StatsSnapshot {
	if c == nil {
		return StatsSnapshot{}
	}
	hits := atomic.LoadUint64(&c.stats.Hits)
	misses := atomic.LoadUint64(&c.stats.Misses)
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Enabled:   c.Enabled(),
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&c.stats.Sets),
		Deletes:   atomic.LoadUint64(&c.stats.Deletes),
		Errors:    atomic.LoadUint64(&c.stats.Errors),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}

// Ping checks if the Redis connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}
