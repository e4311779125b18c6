package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/figure-timeline/internal/cache"
	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/service"
)

// compile-time check: the Redis cache plugs into ItemService.
var _ service.TimelineCache = (*cache.RedisTimelineCache)(nil)

// newTestCache connects to TEST_REDIS_URL and flushes the selected DB so
// each test starts empty. Skips when TEST_REDIS_URL is not set.
func newTestCache(t *testing.T, ttl time.Duration) (*cache.RedisTimelineCache, *redis.Client) {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping integration test")
	}

	ctx := context.Background()
	client, err := cache.NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.FlushDB(ctx).Err())

	return cache.NewRedisTimelineCache(client, ttl), client
}

func TestRedisTimelineCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	want := []domain.TimelineEntry{
		{ID: 2, ItemID: 7, Start: "000912-07-18 00:00:00", What: "dies"},
		{ID: 1, ItemID: 7, Start: "000852-12-09 00:00:00", What: "born"},
	}

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, gen, "an item never invalidated is at generation 0")

	require.NoError(t, c.Set(ctx, 7, gen, want))
	got, ok, err := c.Get(ctx, 7, gen)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisTimelineCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	got, ok, err := c.Get(context.Background(), 404, 0)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisTimelineCache_EmptyTimelineIsAHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 3, 0, nil))
	got, ok, err := c.Get(ctx, 3, 0)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisTimelineCache_Invalidate(t *testing.T) {
	c, client := newTestCache(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 7, 0, []domain.TimelineEntry{{ID: 1, ItemID: 7, Start: "1", What: "x"}}))

	require.NoError(t, c.Invalidate(ctx, 7))
	require.NoError(t, c.Invalidate(ctx, 7), "invalidating twice is fine")

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	_, ok, err := c.Get(ctx, 7, gen)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := client.Exists(ctx, "item:7:timeline:0").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "the value under the previous generation is dropped")
}

// TestRedisTimelineCache_SetAfterInvalidateIsNeverServed models a reader that
// loaded rows before a save committed and writes them back after the save
// invalidated the cache.
func TestRedisTimelineCache_SetAfterInvalidateIsNeverServed(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	readerGen, err := c.Generation(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, 5))
	require.NoError(t, c.Set(ctx, 5, readerGen, []domain.TimelineEntry{{ID: 1, ItemID: 5, Start: "1", What: "old"}}))

	gen, err := c.Generation(ctx, 5)
	require.NoError(t, err)
	got, ok, err := c.Get(ctx, 5, gen)
	require.NoError(t, err)
	assert.False(t, ok, "stale write must not be visible at the current generation")
	assert.Nil(t, got)
}

func TestRedisTimelineCache_TTL(t *testing.T) {
	c, client := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 9, 0, nil))
	require.NoError(t, c.Invalidate(ctx, 9))
	require.NoError(t, c.Set(ctx, 9, 1, nil))

	ttl, err := client.TTL(ctx, "item:9:timeline:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	genTTL, err := client.TTL(ctx, "item:9:gen").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), genTTL, "the generation counter never expires")
}

func TestNewRedisClient_badURL(t *testing.T) {
	_, err := cache.NewRedisClient(context.Background(), "not-a-url")

	assert.ErrorContains(t, err, "parse url")
}
