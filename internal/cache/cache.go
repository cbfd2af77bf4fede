// Package cache provides a bounded in-memory cache with per-entry TTL and
// LRU eviction. It fronts the persistent store and expensive Telegram API
// lookups; it is never the system of record, so every cached value must be
// reconstructable from a durable row or a fresh API call.
package cache

import (
	"container/list"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the cache when no option overrides it.
	DefaultMaxEntries = 10000
	// DefaultTTL is the entry lifetime when no option overrides it.
	DefaultTTL = 15 * time.Minute
)

// Option configures a Cache at construction time.
type Option func(*settings)

type settings struct {
	maxEntries int
	ttl        time.Duration
	clock      func() time.Time
	logger     *slog.Logger
}

// WithMaxEntries bounds the number of live entries. Inserting beyond the
// bound evicts the least-recently-used entry.
func WithMaxEntries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithTTL sets the default entry lifetime. A TTL of zero or below means
// entries never expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithLogger attaches a logger for eviction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// withClock injects a deterministic time source for tests.
func withClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a string-keyed bounded LRU cache with per-entry TTL.
// All operations are safe for concurrent use. Values are stored and
// returned by value; callers holding reference types share backing data
// and must not mutate it.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	clock      func() time.Time
	logger     *slog.Logger

	lru     *list.List // front = most recently used, element value = key
	index   map[string]*list.Element
	entries map[string]entry[V]
}

// New creates a cache with the given options.
func New[V any](opts ...Option) *Cache[V] {
	s := settings{
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
		clock:      time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Cache[V]{
		maxEntries: s.maxEntries,
		ttl:        s.ttl,
		clock:      s.clock,
		logger:     s.logger,
		lru:        list.New(),
		index:      make(map[string]*list.Element),
		entries:    make(map[string]entry[V]),
	}
}

// Get returns the value stored under key. An entry past its TTL is
// removed on observation and reported as a miss; a hit refreshes the
// entry's recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.ensureNotExpiredLocked(key)
	if !ok {
		var zero V
		return zero, false
	}

	c.touchLocked(key)
	return stored.value, true
}

// Put stores value under key with the cache's default TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.PutTTL(key, value, c.ttl)
}

// PutTTL stores value under key with an explicit TTL, overriding the
// default. A TTL of zero or below means the entry never expires.
func (c *Cache[V]) PutTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.expiryFrom(ttl),
	}
	c.upsertKeyLocked(key)
	c.trimToCapacityLocked()
}

// Delete removes the entry stored under key, if any.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteLocked(key)
}

// Len reports the number of live entries, expired ones included until
// they are observed or swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// SweepExpired removes every entry past its TTL and reports how many
// were removed. The scheduled sweep task calls this so memory is
// reclaimed even for keys that are never read again.
func (c *Cache[V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, stored := range c.entries {
		if isExpired(stored.expiresAt, now) {
			c.deleteLocked(key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries", "removed", removed, "remaining", len(c.entries))
	}
	return removed
}

// ensureNotExpiredLocked returns the live entry for key, removing it
// first when its TTL has passed.
func (c *Cache[V]) ensureNotExpiredLocked(key string) (entry[V], bool) {
	stored, ok := c.entries[key]
	if !ok {
		return entry[V]{}, false
	}
	if isExpired(stored.expiresAt, c.now()) {
		c.deleteLocked(key)
		return entry[V]{}, false
	}
	return stored, true
}

// upsertKeyLocked moves key to the front of the recency list, inserting
// it when absent.
func (c *Cache[V]) upsertKeyLocked(key string) {
	if element, ok := c.index[key]; ok {
		c.lru.MoveToFront(element)
		return
	}
	c.index[key] = c.lru.PushFront(key)
}

func (c *Cache[V]) touchLocked(key string) {
	if element, ok := c.index[key]; ok {
		c.lru.MoveToFront(element)
	}
}

// trimToCapacityLocked evicts from the back of the recency list until
// the cache fits its bound. The victim is always the least recently
// used entry, which makes eviction order deterministic.
func (c *Cache[V]) trimToCapacityLocked() {
	for len(c.entries) > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			return
		}
		key, ok := oldest.Value.(string)
		if !ok {
			c.lru.Remove(oldest)
			continue
		}
		c.deleteLocked(key)
		c.logger.Debug("Evicted cache entry at capacity", "key", key, "max_entries", c.maxEntries)
	}
}

func (c *Cache[V]) deleteLocked(key string) {
	if element, ok := c.index[key]; ok {
		c.lru.Remove(element)
		delete(c.index, key)
	}
	delete(c.entries, key)
}

func (c *Cache[V]) now() time.Time {
	return c.clock().UTC()
}

// expiryFrom converts a TTL into an absolute deadline; zero or negative
// TTL yields the zero time, meaning no expiry.
func (c *Cache[V]) expiryFrom(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func isExpired(expiresAt time.Time, now time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return !now.Before(expiresAt)
}
