package cache

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process TTL cache backed by go-cache. It is the
// server default when no Redis address is configured.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a memory cache that sweeps expired entries every
// cleanup interval.
func NewMemoryCache(cleanup time.Duration) Cache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanup)}
}

// Get retrieves a copy of a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

// Set stores a copy of data. A ttl of zero never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, slices.Clone(data), ttl)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (c *MemoryCache) Len() int { return c.store.ItemCount() }

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
