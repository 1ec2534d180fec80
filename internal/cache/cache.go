// Package cache memoizes the most recent digest for a freshness window.
package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/ppiankov/abhaya/internal/news"
)

// DefaultTTL is the freshness window of a cached digest.
const DefaultTTL = 2 * time.Minute

// ErrMiss reports an empty or expired cache. It is a control signal, not a failure.
var ErrMiss = errors.New("cache miss")

// Cache holds exactly one digest. Writes overwrite; nothing is evicted otherwise.
type Cache struct {
	mu       sync.Mutex
	items    []news.Item
	captured time.Time
	stored   bool
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache with the given freshness window. A non-positive ttl
// selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Read returns a copy of the stored digest while it is fresh, else ErrMiss.
func (c *Cache) Read() ([]news.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stored || c.now().Sub(c.captured) >= c.ttl {
		return nil, ErrMiss
	}
	return news.Clone(c.items), nil
}

// Write replaces the stored digest and restarts the freshness window.
func (c *Cache) Write(items []news.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = news.Clone(items)
	c.captured = c.now()
	c.stored = true
}

// Age reports how old the stored digest is. ok is false when nothing was written.
func (c *Cache) Age() (age time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stored {
		return 0, false
	}
	return c.now().Sub(c.captured), true
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
