// Package apicache memoizes remote query results so repeated enumeration and
// validation of the same trees cost no additional requests. Entries expire
// after a fixed TTL and are evicted lazily by the Get that discovers them;
// there is no background eviction. The cache never self-invalidates on
// external changes: callers Remove the keys they know they made stale.
package apicache

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 30 * time.Minute

type entry struct {
	value any
	setAt time.Time
}

// Cache is a process-wide, time-bounded memo keyed by logical query strings.
// Safe for concurrent use.
type Cache struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock substitutes the wall clock, used by tests.
func WithClock(c clockwork.Clock) Option {
	return func(ca *Cache) { ca.clock = c }
}

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(ca *Cache) { ca.ttl = ttl }
}

// New returns an empty cache with the default 30-minute TTL.
func New(opts ...Option) *Cache {
	c := &Cache{
		clock:   clockwork.NewRealClock(),
		ttl:     DefaultTTL,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds a deterministic cache key from an operation name and its
// arguments.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the cached value for key, or ok=false if the key was never set
// or has expired. An expired entry is deleted by the Get that finds it.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Since(e.setAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the current timestamp.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, setAt: c.clock.Now()}
}

// Remove deletes one key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
