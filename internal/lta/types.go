package lta

import (
	"encoding/json"
	"time"
)

// Crowd levels derived from the upstream single-letter codes.
const (
	LevelLow     = "Low"
	LevelMedium  = "Medium"
	LevelHigh    = "High"
	LevelUnknown = "Unknown"
)

// Failure carries the normalized error fields shared by every feed result.
// Error is a short machine tag (missing_key, upstream_http, upstream,
// unexpected_payload); the remaining fields add detail per tag.
type Failure struct {
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// freshness holds the cache-derived fields recomputed on every cache hit.
type freshness struct {
	UpdatedLocal string `json:"updated_local,omitempty"`
	AgeSec       *int64 `json:"age_sec,omitempty"`
}

// stamp recomputes age and localized time from the RFC 3339 updatedAt string.
func (f *freshness) stamp(updatedAt string, now time.Time, loc *time.Location) {
	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return
	}
	age := int64(now.Sub(t).Seconds())
	if age < 0 {
		age = 0
	}
	f.AgeSec = &age
	f.UpdatedLocal = t.In(loc).Format(time.RFC3339)
}

// AlertRecord is one normalized train service alert.
type AlertRecord struct {
	Line       string          `json:"line"`
	Status     string          `json:"status"`
	Message    *string         `json:"message"`
	Timestamp  *string         `json:"timestamp"`
	Direction  *string         `json:"direction"`
	Stations   json.RawMessage `json:"stations"`
	BusShuttle json.RawMessage `json:"bus_shuttle"`
}

// AlertsResult is the normalized /mrt view.
type AlertsResult struct {
	OK        bool   `json:"ok"`
	Source    string `json:"source"`
	UpdatedAt string `json:"updated_at"`
	freshness
	HasDisruption *bool         `json:"has_disruption"`
	Alerts        []AlertRecord `json:"alerts"`
	Failure
	Raw json.RawMessage `json:"raw,omitempty"`
}

// CrowdSample is one station's realtime crowd reading.
type CrowdSample struct {
	StationCode *string `json:"station_code"`
	Station     *string `json:"station"`
	CrowdLevel  string  `json:"crowd_level"`
	CrowdScore  float64 `json:"crowd_score"`
	RawLevel    *string `json:"raw_level"`
	LastUpdate  *string `json:"last_update"`
}

// CrowdResult is the normalized /mrt/crowd view.
type CrowdResult struct {
	OK        bool   `json:"ok"`
	Source    string `json:"source,omitempty"`
	Line      string `json:"line,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	freshness
	Stations []CrowdSample `json:"stations"`
	Failure
	Raw json.RawMessage `json:"raw,omitempty"`
}

// ForecastSlot is one station/time-slot crowd forecast.
type ForecastSlot struct {
	StationCode *string `json:"station_code"`
	Station     *string `json:"station"`
	TimeSlot    *string `json:"time_slot"`
	CrowdLevel  string  `json:"crowd_level"`
	CrowdScore  float64 `json:"crowd_score"`
	RawLevel    *string `json:"raw_level"`
}

// ForecastResult is the normalized /mrt/crowd-forecast view. Stale is set
// when an expired cache entry was served because the fresh fetch failed.
type ForecastResult struct {
	OK        bool   `json:"ok"`
	Source    string `json:"source,omitempty"`
	Line      string `json:"line,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	freshness
	Forecast []ForecastSlot `json:"forecast"`
	Stale    bool           `json:"stale,omitempty"`
	Failure
	Raw json.RawMessage `json:"raw,omitempty"`
}

// BusLeg is one normalized arrival (next/next2/next3) for a bus service.
type BusLeg struct {
	OriginCode       *string `json:"origin_code"`
	DestinationCode  *string `json:"destination_code"`
	EstimatedArrival *string `json:"estimated_arrival"`
	ETAMin           *int    `json:"eta_min"`
	Monitored        *int    `json:"monitored"`
	Load             *string `json:"load"`
	Feature          *string `json:"feature"`
	Type             *string `json:"type"`
	Lat              *string `json:"lat"`
	Lng              *string `json:"lng"`
	VisitNumber      *string `json:"visit_number"`
}

// BusService groups the up-to-three upcoming arrivals of one service.
type BusService struct {
	ServiceNo string `json:"service_no"`
	Operator  string `json:"operator"`
	Next      BusLeg `json:"next"`
	Next2     BusLeg `json:"next2"`
	Next3     BusLeg `json:"next3"`
}

// BusResult is the normalized /bus/arrivals view.
type BusResult struct {
	OK          bool   `json:"ok"`
	BusStopCode string `json:"bus_stop_code,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	freshness
	Services []BusService `json:"services"`
	Failure
}

// Segment is the optional station range a summary was restricted to.
type Segment struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CrowdCounts tallies stations per crowd level.
type CrowdCounts struct {
	Low     int `json:"low"`
	Medium  int `json:"medium"`
	High    int `json:"high"`
	Unknown int `json:"unknown"`
}

// PinchPoint is one of the top-k most crowded stations.
type PinchPoint struct {
	Label      string  `json:"label"`
	CrowdLevel string  `json:"crowd_level"`
	CrowdScore float64 `json:"crowd_score"`
}

// SummaryResult fuses alerts and crowd data into one rider-facing view. It is
// computed per request and never cached itself; its inputs are.
type SummaryResult struct {
	OK            bool          `json:"ok"`
	Error         string        `json:"error,omitempty"`
	Normalized    string        `json:"normalized,omitempty"`
	Supported     []string      `json:"supported,omitempty"`
	AlertsOK      *bool         `json:"alerts_ok,omitempty"`
	CrowdOK       *bool         `json:"crowd_ok,omitempty"`
	Line          string        `json:"line,omitempty"`
	Segment       *Segment      `json:"segment,omitempty"`
	StationCount  int           `json:"station_count"`
	Counts        *CrowdCounts  `json:"counts,omitempty"`
	PinchPoints   []PinchPoint  `json:"pinch_points,omitempty"`
	MaxCrowdScore float64       `json:"max_crowd_score"`
	HasDisruption bool          `json:"has_disruption"`
	Alerts        []AlertRecord `json:"alerts,omitempty"`
	Summary       string        `json:"summary,omitempty"`
}
