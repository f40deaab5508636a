package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResult is a minimal Value for exercising the cache.
type fakeResult struct {
	payload   string
	ok        bool
	updatedAt time.Time

	ageSec int64
	local  string
	stale  bool
}

func (f *fakeResult) Cacheable() bool { return f.ok }

func (f *fakeResult) Clone() Value {
	c := *f
	return &c
}

func (f *fakeResult) Stamp(now time.Time, loc *time.Location) {
	f.ageSec = int64(now.Sub(f.updatedAt).Seconds())
	f.local = f.updatedAt.In(loc).Format(time.RFC3339)
}

func (f *fakeResult) MarkStale() { f.stale = true }

// clock drives the cache's time source in tests.
type clock struct {
	now time.Time
}

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(ttl time.Duration) (*Cache, *clock) {
	clk := &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewWithClock(ttl, time.UTC, func() time.Time { return clk.now })
	return c, clk
}

func fetcherFor(clk *clock, payload string, ok bool, calls *int) Fetcher {
	return func(ctx context.Context) Value {
		*calls++
		return &fakeResult{payload: payload, ok: ok, updatedAt: clk.now}
	}
}

func TestHitWithinTTLSkipsFetch(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	v1 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "a", true, &calls))
	require.Equal(t, 1, calls)
	assert.Equal(t, "a", v1.(*fakeResult).payload)

	clk.advance(10 * time.Second)
	v2 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "b", true, &calls))
	assert.Equal(t, 1, calls, "fresh entry must not refetch")
	assert.Equal(t, "a", v2.(*fakeResult).payload)
}

func TestAgeRecomputedOnEveryHit(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "a", true, &calls))

	clk.advance(1 * time.Second)
	v1 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "x", true, &calls))
	clk.advance(1 * time.Second)
	v2 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "x", true, &calls))

	assert.Equal(t, int64(1), v1.(*fakeResult).ageSec)
	assert.Equal(t, int64(2), v2.(*fakeResult).ageSec)
	assert.Equal(t, 1, calls)
}

func TestExpiryTriggersRefetch(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "a", true, &calls))
	clk.advance(90 * time.Second)
	v := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "b", true, &calls))

	assert.Equal(t, 2, calls)
	assert.Equal(t, "b", v.(*fakeResult).payload)
}

func TestFailedResultsAreNotCached(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "boom", false, &calls))
	c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "boom", false, &calls))
	assert.Equal(t, 2, calls, "failures must not be stored")
}

func TestKeysAreIndependent(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	callsA, callsB := 0, 0

	c.GetOrFetch(context.Background(), "line:NSL", fetcherFor(clk, "nsl", true, &callsA))
	c.GetOrFetch(context.Background(), "line:EWL", fetcherFor(clk, "ewl", true, &callsB))
	assert.Equal(t, 1, callsA)
	assert.Equal(t, 1, callsB)
}

func TestStaleFallbackServesExpiredEntry(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	c.GetOrFetchStale(context.Background(), "k", fetcherFor(clk, "good", true, &calls))
	clk.advance(5 * time.Minute)

	v := c.GetOrFetchStale(context.Background(), "k", fetcherFor(clk, "bad", false, &calls))
	require.Equal(t, 2, calls)

	fr := v.(*fakeResult)
	assert.Equal(t, "good", fr.payload)
	assert.True(t, fr.stale)
	assert.Equal(t, int64(300), fr.ageSec, "age reflects real elapsed time, not TTL")
}

func TestStaleFallbackWithoutCachePropagatesFailure(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	v := c.GetOrFetchStale(context.Background(), "k", fetcherFor(clk, "bad", false, &calls))
	fr := v.(*fakeResult)
	assert.False(t, fr.ok)
	assert.False(t, fr.stale)
	assert.Equal(t, "bad", fr.payload)
}

func TestCachedCopyIsIsolated(t *testing.T) {
	c, clk := newTestCache(90 * time.Second)
	calls := 0

	v1 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "a", true, &calls))
	v1.(*fakeResult).payload = "mutated"

	v2 := c.GetOrFetch(context.Background(), "k", fetcherFor(clk, "x", true, &calls))
	assert.Equal(t, "a", v2.(*fakeResult).payload)
}
