package cache_test

import (
	"testing"
	"time"

	"github.com/kehilahub/kehila/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	return cache.New(zap.NewNop())
}

func TestGetReturnsFreshValue(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("profiles:all", []string{"a", "b"}, cache.TTLMedium)

	value, ok := c.Get("profiles:all")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, value)
}

func TestGetMissOnAbsentKey(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	value, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, value)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestExpiredEntryIsRemovedOnRead(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("posts:all", "payload", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)

	value, ok := c.Get("posts:all")
	assert.False(t, ok)
	assert.Nil(t, value)

	// Lazy expiry must actually delete the entry
	stats := c.Stats()
	assert.Empty(t, stats.Entries)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestGetWithTTLOverridesStoredTTL(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("events:live", 42, cache.TTLExtraLong)

	time.Sleep(20 * time.Millisecond)

	// Entry is fresh under its stored TTL but stale under a tighter one
	_, ok := c.GetWithTTL("events:live", 5*time.Millisecond)
	assert.False(t, ok)

	_, ok = c.Get("events:live")
	assert.False(t, ok, "stale read should have evicted the entry")
}

func TestSetOverwritesAndResetsStats(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("k", "old", cache.TTLShort)

	_, ok := c.Get("k")
	require.True(t, ok)

	c.Set("k", "new", cache.TTLShort)

	value, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", value)

	stats := c.Stats()
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, int64(1), stats.Entries[0].AccessCount)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("k", 1, cache.TTLShort)

	assert.True(t, c.Invalidate("k"))
	assert.False(t, c.Invalidate("k"))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestClearPatternRemovesBySubstring(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("posts:all", 1, cache.TTLShort)
	c.Set("posts:1", 2, cache.TTLShort)
	c.Set("profiles:all", 3, cache.TTLShort)

	removed := c.ClearPattern("posts")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("posts:all")
	assert.False(t, ok)
	_, ok = c.Get("posts:1")
	assert.False(t, ok)

	value, ok := c.Get("profiles:all")
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestClearRemovesEverything(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("a", 1, cache.TTLShort)
	c.Set("b", 2, cache.TTLShort)

	c.Clear()

	assert.Zero(t, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Clears)
}

func TestStatsAccounting(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	// 3 sets, 2 hits, 4 misses
	c.Set("a", 1, cache.TTLShort)
	c.Set("b", 2, cache.TTLShort)
	c.Set("c", 3, cache.TTLShort)

	c.Get("a")
	c.Get("b")

	c.Get("x")
	c.Get("y")
	c.Get("z")
	c.Get("w")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(4), stats.Misses)
	assert.Equal(t, uint64(3), stats.Sets)
}

func TestSweepExpired(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("stale:1", 1, 5*time.Millisecond)
	c.Set("stale:2", 2, 5*time.Millisecond)
	c.Set("fresh", 3, cache.TTLLong)

	time.Sleep(20 * time.Millisecond)

	removed := c.SweepExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}

func TestGetTyped(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	c.Set("totals", []int{10, 20}, cache.TTLShort)

	totals, ok := cache.GetTyped[[]int](c, "totals")
	require.True(t, ok)
	assert.Equal(t, []int{10, 20}, totals)

	// Wrong type reads as a miss, not a panic
	_, ok = cache.GetTyped[string](c, "totals")
	assert.False(t, ok)
}
