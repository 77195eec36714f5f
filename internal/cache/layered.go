package cache

import (
	"errors"
	"sync/atomic"
	"time"
)

// LayeredCache checks memory first, then disk, promoting disk hits
type LayeredCache struct {
	memory Cache
	disk   Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLayeredCache creates a memory + disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(
		NewMemoryCache(memoryTTL, cleanupInterval(memoryTTL)),
		NewDiskCache(diskDir, diskTTL),
	)
}

// NewLayered stacks two caches
func NewLayered(memory, disk Cache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Get returns a value from the first layer holding it
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		c.hits.Add(1)
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		c.hits.Add(1)
		return val, true
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a value in both layers. The memory layer uses its own TTL.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, 0); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Stats returns hit and miss counts since creation
func (c *LayeredCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
