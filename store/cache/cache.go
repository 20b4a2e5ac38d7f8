// Package cache provides a small in-process TTL cache used by the store
// for hot lookups (users by phone, preferences).
package cache

import (
	"sync"
	"time"
)

// Config holds cache settings.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	OnEviction      func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache with periodic cleanup.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]item
	config Config
	done   chan struct{}
	once   sync.Once
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	c := &Cache{
		items:  make(map[string]item),
		config: config,
		done:   make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		// Evict an arbitrary entry to stay within bounds. The cache is
		// an optimization only; dropped entries are reloaded from the
		// database on the next miss.
		for k, it := range c.items {
			delete(c.items, k)
			if c.config.OnEviction != nil {
				c.config.OnEviction(k, it.value)
			}
			break
		}
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, it := range c.items {
				if now.After(it.expiresAt) {
					delete(c.items, k)
					if c.config.OnEviction != nil {
						c.config.OnEviction(k, it.value)
					}
				}
			}
			c.mu.Unlock()
		}
	}
}
