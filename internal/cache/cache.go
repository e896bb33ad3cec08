// Package cache provides an in-memory key-value store with per-entry TTLs,
// pattern invalidation and access statistics. Instances are constructed
// explicitly and injected into consumers so tests can run isolated caches.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Named TTL tiers. Callers pick a tier by how quickly the underlying data
// changes: frequently-changing lists use TTLShort, mostly-static reference
// data uses TTLLong or above.
const (
	TTLShort     = 60 * time.Second
	TTLMedium    = 300 * time.Second
	TTLLong      = 600 * time.Second
	TTLVeryLong  = 1800 * time.Second
	TTLExtraLong = 3600 * time.Second

	// DefaultSweepInterval controls how often the background sweeper removes
	// expired entries in long-lived processes.
	DefaultSweepInterval = 5 * time.Minute
)

// entry holds one cached value along with its expiry and access bookkeeping.
type entry struct {
	data         any
	timestamp    time.Time
	ttl          time.Duration
	accessCount  int64
	lastAccessed time.Time
}

// EntryStats describes one live cache entry for diagnostics.
type EntryStats struct {
	Key          string        `json:"key"`
	Age          time.Duration `json:"age"`
	AccessCount  int64         `json:"accessCount"`
	LastAccessed time.Time     `json:"lastAccessed"`
}

// Stats is a point-in-time snapshot of cache counters and live entries.
type Stats struct {
	Hits    uint64       `json:"hits"`
	Misses  uint64       `json:"misses"`
	Sets    uint64       `json:"sets"`
	Deletes uint64       `json:"deletes"`
	Clears  uint64       `json:"clears"`
	Entries []EntryStats `json:"entries"`
}

// Cache is a process-wide TTL cache. All operations are safe for concurrent
// use. Lookups never fail: a stale or absent entry is reported the same way,
// so callers always fall back to the upstream fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.Logger

	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
	clears  uint64
}

// New creates an empty cache.
func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		logger:  logger.Named("cache"),
	}
}

// Get returns the cached value for key, or nil and false on a miss.
// An entry older than its TTL is removed and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	return c.get(key, 0)
}

// GetWithTTL behaves like Get but judges staleness against maxAge instead of
// the TTL the entry was stored with.
func (c *Cache) GetWithTTL(key string, maxAge time.Duration) (any, bool) {
	return c.get(key, maxAge)
}

func (c *Cache) get(key string, maxAge time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	ttl := e.ttl
	if maxAge > 0 {
		ttl = maxAge
	}

	// Lazy expiry: a stale entry is indistinguishable from a missing one.
	if time.Since(e.timestamp) > ttl {
		delete(c.entries, key)
		c.misses++

		return nil, false
	}

	e.accessCount++
	e.lastAccessed = time.Now()
	c.hits++

	return e.data, true
}

// Set stores data under key, unconditionally replacing any existing entry
// and resetting its access statistics. A non-positive ttl falls back to
// TTLMedium.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = TTLMedium
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		data:         data,
		timestamp:    now,
		ttl:          ttl,
		lastAccessed: now,
	}
	c.sets++
}

// Invalidate removes a single entry. Returns whether an entry was present.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}

	delete(c.entries, key)
	c.deletes++

	return true
}

// ClearPattern removes every entry whose key contains pattern as a substring
// and returns the number removed. This is containment matching, not glob or
// regex: ClearPattern("posts") drops both "posts:all" and "posts:1".
func (c *Cache) ClearPattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}

	c.deletes += uint64(removed)

	c.logger.Debug("Cleared cache entries by pattern",
		zap.String("pattern", pattern),
		zap.Int("removed", removed))

	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.clears++
}

// SweepExpired removes every entry older than its own TTL and returns the
// number removed.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for key, e := range c.entries {
		if now.Sub(e.timestamp) > e.ttl {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int("removed", removed))
	}

	return removed
}

// StartSweeper runs SweepExpired on the given interval until ctx is
// cancelled. Bounds memory growth between reads in long-lived processes.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.SweepExpired()
			}
		}
	}()
}

// Stats returns a snapshot of the cache counters and per-entry diagnostics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	entries := make([]EntryStats, 0, len(c.entries))

	for key, e := range c.entries {
		entries = append(entries, EntryStats{
			Key:          key,
			Age:          now.Sub(e.timestamp),
			AccessCount:  e.accessCount,
			LastAccessed: e.lastAccessed,
		})
	}

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Deletes: c.deletes,
		Clears:  c.clears,
		Entries: entries,
	}
}

// Len returns the number of live entries, including ones that are stale but
// not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// GetTyped returns the cached value for key asserted to T. A value of the
// wrong type is treated as a miss so callers never see a panic from a stale
// schema change.
func GetTyped[T any](c *Cache, key string) (T, bool) {
	value, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, false
	}

	return typed, true
}
