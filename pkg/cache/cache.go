package cache

import (
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v3"
)

// Policy bounds a cache by entry age and entry count.
type Policy struct {
	TTL        time.Duration
	MaxEntries int
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a bounded in-process map with absolute-age expiry.
//
// Entries expire strictly by age since insertion; a hit does not refresh the
// timestamp. When the cache is full, the oldest-inserted entry is evicted to
// make room (FIFO-like, not LRU). Expired entries are removed lazily on access
// and by the periodic Sweep.
//
// A Cache never fails: any inconsistency is treated as a miss.
type Cache[V any] struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, entry[V]]
	policy  Policy
	now     func() time.Time
}

// Stats is a point-in-time snapshot for operators.
type Stats struct {
	Entries   int
	OldestAge time.Duration
}

type Option[V any] func(*Cache[V])

// WithClock overrides the time source, used by tests to drive expiry.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// New creates a bounded TTL cache. A non-positive MaxEntries falls back to
// DefaultMaxEntries.
func New[V any](policy Policy, opts ...Option[V]) *Cache[V] {
	if policy.MaxEntries <= 0 {
		policy.MaxEntries = DefaultMaxEntries
	}

	c := &Cache[V]{
		entries: orderedmap.NewOrderedMap[string, entry[V]](),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key, or false if absent or expired.
// An expired entry is deleted on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.policy.TTL {
		c.entries.Delete(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. If the cache is at capacity, the oldest-inserted
// entry is evicted first. Storing an existing key overwrites its value and
// resets its age.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-insert so the entry moves to the back of the insertion order.
	c.entries.Delete(key)

	if c.entries.Len() >= c.policy.MaxEntries {
		if front := c.entries.Front(); front != nil {
			c.entries.Delete(front.Key)
		}
	}

	c.entries.Set(key, entry[V]{value: value, storedAt: c.now()})
}

// Sweep removes all expired entries and returns how many were removed.
// It holds the same lock as Get/Set so the map is never mutated mid-iteration.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []string
	for el := c.entries.Front(); el != nil; el = el.Next() {
		if now.Sub(el.Value.storedAt) > c.policy.TTL {
			expired = append(expired, el.Key)
		}
	}
	for _, key := range expired {
		c.entries.Delete(key)
	}
	return len(expired)
}

// Len returns the current number of entries, including any not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats reports the entry count and the age of the oldest entry.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Entries: c.entries.Len()}
	now := c.now()
	for el := c.entries.Front(); el != nil; el = el.Next() {
		if age := now.Sub(el.Value.storedAt); age > s.OldestAge {
			s.OldestAge = age
		}
	}
	return s
}
