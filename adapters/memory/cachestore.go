// Package memory provides in-memory implementations for testing and
// single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/pageblocks/adapters/clock"
	"github.com/artpar/pageblocks/ports"
)

// CacheStore is an in-memory implementation of ports.CacheStore.
// It is shared by every registry holding the same instance.
type CacheStore struct {
	mu    sync.RWMutex
	data  map[string]cacheEntry
	clock ports.Clock
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return NewCacheStoreWithClock(clock.Real{})
}

// NewCacheStoreWithClock creates a cache store that reads time from c.
func NewCacheStoreWithClock(c ports.Clock) *CacheStore {
	return &CacheStore{
		data:  make(map[string]cacheEntry),
		clock: c,
	}
}

// Get returns the stored value, or nil when absent or expired.
func (c *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || c.expired(entry) {
		return nil, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Put stores value under key. A ttl <= 0 never expires.
func (c *CacheStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.clock.Now().Add(ttl)
	}
	c.data[key] = entry
	return nil
}

// Forget removes key.
func (c *CacheStore) Forget(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// PurgeExpired drops expired entries and returns how many were removed.
func (c *CacheStore) PurgeExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.data {
		if c.expired(e) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including expired ones.
func (c *CacheStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *CacheStore) expired(e cacheEntry) bool {
	return !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt)
}

// Ensure interface compliance.
var _ ports.CacheStore = (*CacheStore)(nil)
