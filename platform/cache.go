package platform

import (
	"sync"
	"time"
)

// VerdictCache is a small time-bounded verdict map scoped to one component
// instance (the status proxy handler owns one). Entries expire on read; there
// is no background sweeper since the working set is bounded by the number of
// concurrently-viewed events.
type VerdictCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	verdict Verdict
	at      time.Time
}

// NewVerdictCache returns a cache with the given TTL (<=0 disables caching).
func NewVerdictCache(ttl time.Duration) *VerdictCache {
	return &VerdictCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns the cached verdict for key if it is still fresh.
func (c *VerdictCache) Get(key string) (Verdict, bool) {
	if c.ttl <= 0 {
		return Verdict{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Verdict{}, false
	}
	if c.now().Sub(e.at) >= c.ttl {
		delete(c.entries, key)
		return Verdict{}, false
	}
	return e.verdict, true
}

// Put stores a verdict for key, stamping the current time.
func (c *VerdictCache) Put(key string, v Verdict) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(c.entries) >= 1024 {
		cutoff := c.now().Add(-c.ttl)
		for k, e := range c.entries {
			if e.at.Before(cutoff) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{verdict: v, at: c.now()}
}
