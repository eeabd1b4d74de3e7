// Package cache provides the in-process TTL caches backing the reference
// context pipeline: a short-lived search-result cache keyed by normalized
// topic and a longer-lived sample cache keyed by candidate reference.
package cache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds each cache instance. When full, the entry
// closest to expiry is evicted.
const DefaultMaxEntries = 1024

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL key/value store with lazy expiry on read and a background
// sweep. Entries are immutable once set and overwritten wholesale on refresh.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	clock      func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a time source, used by tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMaxEntries overrides the defensive size bound.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithoutSweep disables the background sweep goroutine. Reads still apply
// lazy expiry, so behavior stays correct; only proactive eviction is lost.
func WithoutSweep() Option {
	return func(c *Cache) {
		c.stop = nil
	}
}

// New returns a cache whose entries expire ttl after Set. A background sweep
// runs every ttl/6 until Close is called.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		clock:      time.Now,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stop != nil {
		interval := ttl / 6
		if interval <= 0 {
			interval = time.Second
		}
		go c.sweep(interval)
	}
	return c
}

// Get returns the value stored under key. An entry past its expiry reports a
// miss even when the sweep has not yet evicted it.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.clock().Before(e.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL, replacing any previous
// entry for the key.
func (c *Cache) Set(key string, value any) {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictSoonestLocked()
	}
	c.entries[key] = entry{value: value, expiresAt: now.Add(c.ttl)}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including any that expired but
// have not yet been swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweep. The cache stays usable afterwards.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		if c.stop != nil {
			close(c.stop)
		}
	})
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := c.clock()
			c.mu.Lock()
			for key, e := range c.entries {
				if !now.Before(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// evictSoonestLocked removes the entry with the earliest expiry. Caller holds
// the write lock.
func (c *Cache) evictSoonestLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, e := range c.entries {
		if !found || e.expiresAt.Before(oldest) {
			victim = key
			oldest = e.expiresAt
			found = true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}
