package embedcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps embeddings in process memory for tests/dev and single-instance deployments.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache constructs a cache whose entries expire after ttl. A zero ttl never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		return &MemoryCache{items: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached vector.
func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	raw, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	vector, ok := raw.([]float32)
	if !ok {
		c.items.Delete(key)
		return nil, false, nil
	}
	return append([]float32(nil), vector...), true, nil
}

// Set stores a copy of the vector with the given ttl.
func (c *MemoryCache) Set(_ context.Context, key string, vector []float32, ttl time.Duration) error {
	expiry := gocache.DefaultExpiration
	if ttl > 0 {
		expiry = ttl
	}
	c.items.Set(key, append([]float32(nil), vector...), expiry)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
