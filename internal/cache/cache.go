// Package cache provides the short-TTL response cache that sits between the
// HTTP handlers and the upstream fetchers. It is purely lazy: entries are
// filled on demand and there is no background refresh.
package cache

import (
	"context"
	"sync"
	"time"
)

// Value is a fetch result the cache can hold. Only successful results are
// stored; Stamp recomputes the freshness fields (age_sec, localized
// timestamp) so they reflect elapsed time on every hit rather than being
// frozen at write time.
type Value interface {
	// Cacheable reports whether the fetch succeeded and the result may be
	// stored. Failed results are returned to the caller but never cached.
	Cacheable() bool
	// Clone returns a copy safe to hand to a caller while the original stays
	// in the cache.
	Clone() Value
	// Stamp refreshes the value's derived freshness fields for the given
	// instant, rendering the localized timestamp in loc.
	Stamp(now time.Time, loc *time.Location)
}

// Stalable is implemented by values that support stale-on-error fallback.
type Stalable interface {
	Value
	MarkStale()
}

// Fetcher produces a fresh value for a cache miss.
type Fetcher func(ctx context.Context) Value

type entry struct {
	val       Value
	fetchedAt time.Time
}

// Cache is a process-wide key→value store with a hard TTL. Concurrent misses
// on the same key may each invoke the fetcher; duplicate upstream work is
// accepted in exchange for never blocking one request on another.
type Cache struct {
	ttl time.Duration
	loc *time.Location

	mu      sync.Mutex
	entries map[string]entry

	now func() time.Time
}

// New creates a cache with the given TTL. Localized timestamps are rendered
// in loc; a nil loc falls back to UTC.
func New(ttl time.Duration, loc *time.Location) *Cache {
	return NewWithClock(ttl, loc, time.Now)
}

// NewWithClock is New with an explicit time source. Tests use it to drive
// expiry deterministically.
func NewWithClock(ttl time.Duration, loc *time.Location, now func() time.Time) *Cache {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		loc:     loc,
		entries: make(map[string]entry),
		now:     now,
	}
}

// GetOrFetch returns the cached value for key if it is within TTL, with its
// freshness fields recomputed for the current instant. On a miss it invokes
// fetch and stores the result iff it reports success. The fetch runs outside
// the cache lock.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch Fetcher) Value {
	if v, ok := c.lookup(key, false); ok {
		return v
	}

	v := fetch(ctx)
	if v != nil && v.Cacheable() {
		c.store(key, v)
	}
	return v
}

// GetOrFetchStale behaves like GetOrFetch but, when the fresh fetch fails and
// an expired entry still exists for key, returns that entry marked stale with
// recomputed freshness fields instead of the failure. With no cached entry
// the failure is returned as-is.
func (c *Cache) GetOrFetchStale(ctx context.Context, key string, fetch Fetcher) Value {
	if v, ok := c.lookup(key, false); ok {
		return v
	}

	v := fetch(ctx)
	if v != nil && v.Cacheable() {
		c.store(key, v)
		return v
	}

	if stale, ok := c.lookup(key, true); ok {
		if sv, isStale := stale.(Stalable); isStale {
			sv.MarkStale()
		}
		return stale
	}
	return v
}

// lookup returns a stamped clone of the entry for key. Expired entries only
// qualify when allowExpired is set (the stale-fallback path).
func (c *Cache) lookup(key string, allowExpired bool) (Value, bool) {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return nil, false
	}
	if !allowExpired && now.Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}

	v := e.val.Clone()
	v.Stamp(now, c.loc)
	return v, true
}

func (c *Cache) store(key string, v Value) {
	now := c.now()
	stored := v.Clone()

	c.mu.Lock()
	c.entries[key] = entry{val: stored, fetchedAt: now}
	c.mu.Unlock()

	// The caller's copy gets its freshness fields set once at store time.
	v.Stamp(now, c.loc)
}
