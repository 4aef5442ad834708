package rates

import (
	"sync"
	"time"

	"github.com/akistler/finboard/internal/domain"
)

// Cache is the process-wide rate cache. It is injectable so the in-memory
// implementation can be swapped for a distributed cache later. Writes are
// idempotent value replacements; concurrent writers racing on the same key
// may both fetch and overwrite, which is acceptable because the cached value
// is external rate truth, not internal state.
type Cache interface {
	Get(key string) (domain.ExchangeRate, bool)
	Set(key string, rate domain.ExchangeRate, ttl time.Duration)
	Clear()
}

type cacheEntry struct {
	rate      domain.ExchangeRate
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded in-memory cache with lazy expiry on read.
// Lifecycle is process-start to process-end; no background sweeper.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewMemoryCache creates an empty in-memory rate cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached rate for a key if it has not expired.
// Expired entries are removed lazily here.
func (c *MemoryCache) Get(key string) (domain.ExchangeRate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.ExchangeRate{}, false
	}
	if !time.Now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return domain.ExchangeRate{}, false
	}
	return entry.rate, true
}

// Set stores a rate under a key with the given TTL, replacing any prior entry.
func (c *MemoryCache) Set(key string, rate domain.ExchangeRate, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		rate:      rate,
		expiresAt: time.Now().Add(ttl),
	}
}

// Clear drops all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
