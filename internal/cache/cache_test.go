package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// setupTestCache connects to TEST_REDIS_ADDR (default localhost:6379) and
// skips when nothing is listening.
func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	c := New(client, prefix, time.Minute)
	_, _ = c.DeletePattern(ctx, "*")
	t.Cleanup(func() {
		_, _ = c.DeletePattern(ctx, "*")
		_ = client.Close()
	})
	return c
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := New(nil, "test:", time.Minute)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "k", payload{Name: "x"}))

	var got payload
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	n, err := c.DeletePattern(ctx, "*")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Error(t, c.Ping(ctx))

	stats := c.GetStats()
	assert.False(t, stats.Enabled)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Zero(t, stats.Sets)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())
	var got payload
	hit, err := c.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRoundTrip(t *testing.T) {
	c := setupTestCache(t, "storefront-test:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "filters:women", payload{Name: "cotton", Price: 100}))

	var got payload
	hit, err := c.Get(ctx, "filters:women", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "cotton", Price: 100}, got)

	n, err := c.DeletePattern(ctx, "filters:*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hit, err = c.Get(ctx, "filters:women", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	stats := c.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)
}
