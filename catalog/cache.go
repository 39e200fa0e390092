// Package catalog implements the read-through cache for threads, history,
// agents, tools, APIs, and users in front of store.Store.
package catalog

import (
	"context"
	"sync"
	"time"
)

const (
	// TTLShort is used for thread/task/history-adjacent entries.
	TTLShort = 5 * time.Second
	// TTLLong is used for catalog lookups (agents/tools/apis/users).
	TTLLong = 30 * time.Second
)

// RefreshFunc refreshes a cache entry in the background before it expires.
type RefreshFunc func(ctx context.Context, key string) (any, error)

type entry struct {
	value     any
	expiresAt time.Time
	ttl       time.Duration
}

// Cache is a generic in-memory TTL cache. One Cache instance is created per
// catalog kind (agents, tools, APIs, users, thread/history) inside Catalog.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	refreshFunc     RefreshFunc
	refreshCooldown time.Duration
	refreshCtx      context.Context
	refreshCancel   context.CancelFunc
	refreshWG       sync.WaitGroup
	refreshCh       chan string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithRefreshFunc enables background refresh of entries approaching expiry.
func WithRefreshFunc(fn RefreshFunc) CacheOption {
	return func(c *Cache) { c.refreshFunc = fn }
}

// NewCache constructs an empty Cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:         make(map[string]*entry),
		refreshCh:       make(chan string, 100),
		refreshCooldown: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or (nil, false) if absent/expired.
// If the entry is within 20% of its TTL of expiring and a RefreshFunc is
// configured, a background refresh is triggered.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	if c.refreshFunc != nil && e.ttl > 0 && now.After(e.expiresAt.Add(-e.ttl/5)) {
		c.triggerRefresh(key)
	}
	return e.value, true
}

// Set stores value under key with the given TTL, overwriting any prior entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, expiresAt: time.Now().Add(ttl), ttl: ttl}
}

// Invalidate removes key, if present. Any write that mutates the underlying
// row must invalidate every cache key derived from it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidatePrefix removes every cached key with the given prefix. Used when
// a write affects a family of derived keys (e.g. all history reads for a
// thread) rather than a single exact key.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) triggerRefresh(key string) {
	if c.refreshCtx == nil {
		return
	}
	select {
	case c.refreshCh <- key:
	case <-c.refreshCtx.Done():
	default:
	}
}

// StartRefresh launches the background refresh loop. No-op if no RefreshFunc
// was configured.
func (c *Cache) StartRefresh(ctx context.Context) {
	if c.refreshFunc == nil {
		return
	}
	c.refreshCtx, c.refreshCancel = context.WithCancel(ctx)
	c.refreshWG.Add(1)
	go c.refreshLoop()
}

// StopRefresh halts the background refresh loop and waits for it to exit.
func (c *Cache) StopRefresh() {
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshWG.Wait()
		c.refreshCancel = nil
	}
}

func (c *Cache) refreshLoop() {
	defer c.refreshWG.Done()
	lastRefresh := make(map[string]time.Time)
	for {
		select {
		case <-c.refreshCtx.Done():
			return
		case key := <-c.refreshCh:
			if t, ok := lastRefresh[key]; ok && time.Since(t) < c.refreshCooldown {
				continue
			}
			c.mu.RLock()
			e, exists := c.entries[key]
			c.mu.RUnlock()
			if !exists {
				continue
			}
			val, err := c.refreshFunc(c.refreshCtx, key)
			if err != nil {
				continue
			}
			c.mu.Lock()
			c.entries[key] = &entry{value: val, expiresAt: time.Now().Add(e.ttl), ttl: e.ttl}
			c.mu.Unlock()
			lastRefresh[key] = time.Now()
		}
	}
}
