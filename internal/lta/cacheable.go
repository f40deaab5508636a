package lta

import (
	"time"

	"smarttravel/internal/cache"
)

// cache.Value implementations. Clones are shallow: the record slices are
// never mutated after a result is built, so sharing their backing arrays
// between the cached copy and handed-out copies is safe.

func (r *AlertsResult) Cacheable() bool { return r.OK }
func (r *AlertsResult) Clone() cache.Value {
	c := *r
	return &c
}
func (r *AlertsResult) Stamp(now time.Time, loc *time.Location) {
	r.stamp(r.UpdatedAt, now, loc)
}

func (r *CrowdResult) Cacheable() bool { return r.OK }
func (r *CrowdResult) Clone() cache.Value {
	c := *r
	return &c
}
func (r *CrowdResult) Stamp(now time.Time, loc *time.Location) {
	r.stamp(r.UpdatedAt, now, loc)
}

func (r *ForecastResult) Cacheable() bool { return r.OK }
func (r *ForecastResult) Clone() cache.Value {
	c := *r
	return &c
}
func (r *ForecastResult) Stamp(now time.Time, loc *time.Location) {
	r.stamp(r.UpdatedAt, now, loc)
}

// MarkStale flags an expired entry served because a fresh fetch failed.
func (r *ForecastResult) MarkStale() { r.Stale = true }

func (r *BusResult) Cacheable() bool { return r.OK }
func (r *BusResult) Clone() cache.Value {
	c := *r
	return &c
}
func (r *BusResult) Stamp(now time.Time, loc *time.Location) {
	r.stamp(r.UpdatedAt, now, loc)
}
