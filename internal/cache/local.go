// Package cache provides byte caches used to memoize derived read models such as
// the analytics summary. Local is an in-process TTL cache; Redis shares entries
// between processes.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is applied when a cache is constructed with a non-positive TTL.
const DefaultTTL = 30 * time.Second

// Local stores entries in memory with a TTL and a bounded entry count.
type Local struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]localEntry
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewLocal constructs an in-process cache. A nil clock uses time.Now.
func NewLocal(ttl time.Duration, maxEntries int, now func() time.Time) *Local {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &Local{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]localEntry),
	}
}

// Get returns a copy of the cached value for key.
func (c *Local) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return cloneBytes(entry.value), true, nil
}

// Set stores a copy of value under key, evicting expired entries first.
func (c *Local) Set(ctx context.Context, key string, value []byte) error {
	if c == nil {
		return nil
	}
	cloned := cloneBytes(value)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = localEntry{value: cloned, expiresAt: expiry}
	return nil
}

// Invalidate drops every entry.
func (c *Local) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]localEntry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, including expired ones not yet evicted.
func (c *Local) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Local) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked removes the entry closest to expiry.
func (c *Local) evictOneLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(oldest) {
			victim, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
