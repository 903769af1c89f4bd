package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// CacheEntry is replaced as a whole on every Put, so a reader sees either no
// entry or a complete one.
type CacheEntry struct {
	Key      string
	Value    interface{}
	StoredAt time.Time
}

// TimedCache stores one entry per key together with the time it was stored.
// Freshness is decided by the caller through IsValid/GetFresh; entries are
// only removed by Prune.
type TimedCache struct {
	mu      sync.RWMutex
	name    string
	entries map[string]CacheEntry
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *Metrics
}

func NewTimedCache(name string, clock clockwork.Clock, metrics *Metrics, logger *zap.Logger) *TimedCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimedCache{
		name:    name,
		entries: make(map[string]CacheEntry),
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *TimedCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *TimedCache) Put(key string, value interface{}) {
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[key] = CacheEntry{Key: key, Value: value, StoredAt: now}
	c.mu.Unlock()

	c.logger.Debug("Cache entry stored",
		zap.String("cache", c.name),
		zap.String("key", key),
		zap.Time("stored_at", now))
}

// IsValid reports whether key is present and younger than maxAge. An entry
// whose age equals maxAge is already stale.
func (c *TimedCache) IsValid(key string, maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return ok && c.fresh(entry, maxAge)
}

// GetFresh combines IsValid and Get under a single lock.
func (c *TimedCache) GetFresh(key string, maxAge time.Duration) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	hit := ok && c.fresh(entry, maxAge)
	c.mu.RUnlock()

	c.metrics.IncCacheLookup(c.name, hit)
	if !hit {
		return nil, false
	}
	return entry.Value, true
}

func (c *TimedCache) fresh(entry CacheEntry, maxAge time.Duration) bool {
	return c.clock.Since(entry.StoredAt) < maxAge
}

// Prune drops entries older than olderThan and returns how many were
// removed. Callers pass at least the longest TTL in use so a pruned key could
// never have been valid.
func (c *TimedCache) Prune(olderThan time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.clock.Since(entry.StoredAt) >= olderThan {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Pruned stale cache entries",
			zap.String("cache", c.name),
			zap.Int("count", removed))
	}
	return removed
}

func (c *TimedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TimedCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var oldest time.Time
	for _, entry := range c.entries {
		if oldest.IsZero() || entry.StoredAt.Before(oldest) {
			oldest = entry.StoredAt
		}
	}

	stats := map[string]interface{}{
		"name":    c.name,
		"entries": len(c.entries),
	}
	if !oldest.IsZero() {
		stats["oldest_age"] = c.clock.Since(oldest).String()
	}
	return stats
}
