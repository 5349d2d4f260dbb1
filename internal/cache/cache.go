// SPDX-License-Identifier: MIT

// Package cache provides a small in-memory TTL cache for parsed artifacts
// that are expensive to rebuild but cheap to hold, like compiled geofences.
package cache

import (
	"sync"
	"time"
)

// Cache is a thread-safe, string-keyed cache with per-entry TTL.
type Cache interface {
	// Get retrieves a value. It reports false for missing or expired keys.
	Get(key string) (any, bool)
	// Set stores a value for ttl.
	Set(key string, value any, ttl time.Duration)
	// Delete removes a key.
	Delete(key string)
	// Clear removes all entries.
	Clear()
	// Stats returns usage counters.
	Stats() Stats
}

// Stats holds cache usage counters.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
	Size   int
}

type entry struct {
	value     any
	expiresAt time.Time
}

// memoryCache holds entries in a map. Expired entries are dropped on access
// rather than by a background sweeper, so the footprint stays bounded by the
// set of distinct keys callers use and no goroutine outlives the cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
}

// New returns an empty in-memory cache.
func New() Cache {
	return &memoryCache{entries: make(map[string]*entry)}
}

func (c *memoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.value, true
}

func (c *memoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.stats.Sets++
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}
