package memcache

import (
	"context"
	"time"

	"github.com/bluele/gcache"
)

// Cache implements ports.CacheService in process memory. The API uses it
// when Valkey is disabled or unreachable.
type Cache struct {
	cache gcache.Cache
}

// New creates a Cache holding up to size entries.
func New(size int) *Cache {
	if size <= 0 {
		size = 128
	}
	return &Cache{cache: gcache.New(size).LRU().Build()}
}

// Get retrieves a value by key. A miss returns gcache.KeyNotFoundError.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.cache.Get(key)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, gcache.KeyNotFoundError
	}
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return c.cache.Set(key, value)
	}
	return c.cache.SetWithExpire(key, value, time.Duration(ttlSeconds)*time.Second)
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}
