// Package cache provides the process-local TTL cache used to avoid redundant
// WooCommerce round-trips. Eviction is lazy: an entry read after its expiry is
// removed and reported as absent. There is no size bound and no background
// sweep.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/metrics"
)

// DefaultTTL applies when Set is called with a non-positive ttl and no
// default was configured.
const DefaultTTL = 5 * time.Minute

// Entry is a cached value with its write time and lifetime.
type Entry struct {
	Key       string
	Value     any
	WrittenAt time.Time
	TTL       time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.WrittenAt.Add(e.TTL))
}

// Cache is a keyed store with per-entry expiry.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(defaultTTL time.Duration, opts ...Option) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key. A non-positive ttl uses the default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = Entry{Key: key, Value: value, WrittenAt: c.now(), TTL: ttl}
	c.mu.Unlock()

	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
}

// Get returns the value for key if present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Has reports whether key holds a fresh value.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookup(key)
	return ok
}

// lookup must be called with mu held.
func (c *Cache) lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return Entry{}, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		metrics.CacheOperations.WithLabelValues("get", "expired").Inc()
		return Entry{}, false
	}
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return e, true
}

// Clear removes every entry when pattern is empty, otherwise only the entries
// whose key contains pattern. It returns the number of removed entries.
func (c *Cache) Clear(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	if pattern == "" {
		removed = len(c.entries)
		c.entries = make(map[string]Entry)
	} else {
		for key := range c.entries {
			if strings.Contains(key, pattern) {
				delete(c.entries, key)
				removed++
			}
		}
	}

	metrics.CacheOperations.WithLabelValues("clear", "ok").Inc()
	return removed
}

// Len returns the number of stored entries, including expired ones not yet
// read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetAs returns the cached value for key asserted to T.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
