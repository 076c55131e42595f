// Package resultcache implements a TTL-scoped cache of parsed result
// payloads keyed by result id, with
// one-shot timer invalidation (not LRU-on-read) and singleflight
// coalescing so concurrent operations sharing an id fetch and parse it
// once. Cache is generic over the cached value so a cache hit reuses
// whatever a caller already parsed the fetched bytes into, never
// re-fetching or re-parsing.
package resultcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is one cached value plus its invalidation timer.
type entry[T any] struct {
	value T
	timer *time.Timer
}

// Cache holds at most one entry per result id. A zero Cache is not
// usable; build one with New.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	group   singleflight.Group
	now     func() time.Time
}

// New creates an empty Cache over values of type T.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]*entry[T]), now: time.Now}
}

// Get returns the cached value for id, if present and not yet expired.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under id with the given time-to-live. ttl <= 0 means
// the entry never expires on its own (it is still replaced by a later
// Set or removed by Invalidate). Any prior timer for id is stopped first,
// so re-fetching an id resets its expiry rather than stacking timers.
func (c *Cache[T]) Set(id string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[id]; ok && old.timer != nil {
		old.timer.Stop()
	}

	e := &entry[T]{value: value}
	if ttl > 0 {
		e.timer = time.AfterFunc(ttl, func() { c.Invalidate(id) })
	}
	c.entries[id] = e
}

// Invalidate removes id's cached entry immediately, stopping its timer if
// it has not already fired.
func (c *Cache[T]) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.entries, id)
	}
}

// GetOrFetch returns id's cached value, or calls fetch exactly once
// (coalescing concurrent callers for the same id via singleflight) and
// caches the result for ttl before returning it.
func (c *Cache[T]) GetOrFetch(ctx context.Context, id string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if value, ok := c.Get(id); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(id, func() (any, error) {
		if value, ok := c.Get(id); ok {
			return value, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		c.Set(id, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// Len reports the number of live (non-expired) entries, for tests and
// diagnostics.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
