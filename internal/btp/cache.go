package btp

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// ListCache keeps raw list responses for a short TTL. A zero TTL disables it.
type ListCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func NewListCache(ttl time.Duration) *ListCache {
	return &ListCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *ListCache) Get(key string) []byte {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]byte, len(e.body))
	copy(result, e.body)
	return result
}

func (c *ListCache) Set(key string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	c.entries[key] = cacheEntry{body: stored, fetchedAt: time.Now()}
}

// Invalidate drops every entry whose key starts with prefix.
func (c *ListCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}
