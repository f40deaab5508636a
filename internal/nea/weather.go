// Package nea fetches the NEA 2-hour weather forecast. The feed needs no
// credentials and degrades to a small hardcoded area list when unreachable.
package nea

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"smarttravel/internal/config"

	"github.com/imroc/req/v3"
)

// LatLng is an area's label position on the map.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Area is one forecast area.
type Area struct {
	Name          string  `json:"name"`
	Forecast      string  `json:"forecast"`
	LabelLocation *LatLng `json:"label_location,omitempty"`
}

// WeatherResult is the normalized /weather view.
type WeatherResult struct {
	UpdatedAt string `json:"updated_at"`
	Areas     []Area `json:"areas"`
}

// rawPayload mirrors the upstream response. Some revisions of the feed spell
// the coordinates key "location" instead of "label_location".
type rawPayload struct {
	AreaMetadata []struct {
		Name          string  `json:"name"`
		LabelLocation *LatLng `json:"label_location"`
		Location      *LatLng `json:"location"`
	} `json:"area_metadata"`
	Items []struct {
		UpdateTimestamp string `json:"update_timestamp"`
		Timestamp       string `json:"timestamp"`
		Forecasts       []struct {
			Area     string `json:"area"`
			Forecast string `json:"forecast"`
		} `json:"forecasts"`
	} `json:"items"`
}

// Service fetches the weather feed.
type Service struct {
	http   *req.Client
	url    string
	logger *log.Logger
}

func NewService(cfg config.UpstreamConfig, logger *log.Logger) *Service {
	return &Service{
		http:   req.C().SetTimeout(cfg.Timeout),
		url:    cfg.NEAWeatherURL,
		logger: logger,
	}
}

// Fetch returns the current 2-hour forecast per area, sorted by name. Any
// upstream failure yields the friendly fallback rather than an error.
func (s *Service) Fetch(ctx context.Context) WeatherResult {
	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil || resp.StatusCode != http.StatusOK {
		if err != nil {
			s.logger.Printf("nea: weather fetch failed: %v", err)
		} else {
			s.logger.Printf("nea: weather upstream status=%d", resp.StatusCode)
		}
		return fallback()
	}

	var payload rawPayload
	if err := json.Unmarshal(resp.Bytes(), &payload); err != nil {
		s.logger.Printf("nea: weather payload parse failed: %v", err)
		return fallback()
	}

	if len(payload.Items) == 0 {
		s.logger.Printf("nea: weather payload had no items")
		return WeatherResult{
			UpdatedAt: nowUTC(),
			Areas:     []Area{{Name: "Unknown", Forecast: "Unknown"}},
		}
	}

	latest := payload.Items[0]
	updatedAt := latest.UpdateTimestamp
	if updatedAt == "" {
		updatedAt = latest.Timestamp
	}
	if updatedAt == "" {
		updatedAt = nowUTC()
	}

	coords := make(map[string]*LatLng, len(payload.AreaMetadata))
	for _, m := range payload.AreaMetadata {
		loc := m.LabelLocation
		if loc == nil {
			loc = m.Location
		}
		if m.Name != "" && loc != nil {
			coords[m.Name] = loc
		}
	}

	areas := make([]Area, 0, len(latest.Forecasts))
	for _, f := range latest.Forecasts {
		name := f.Area
		if name == "" {
			name = "Unknown"
		}
		forecast := f.Forecast
		if forecast == "" {
			forecast = "Unknown"
		}
		areas = append(areas, Area{Name: name, Forecast: forecast, LabelLocation: coords[name]})
	}
	sort.Slice(areas, func(i, j int) bool {
		return strings.ToLower(areas[i].Name) < strings.ToLower(areas[j].Name)
	})

	return WeatherResult{UpdatedAt: updatedAt, Areas: areas}
}

func fallback() WeatherResult {
	return WeatherResult{
		UpdatedAt: nowUTC(),
		Areas: []Area{
			{Name: "Ang Mo Kio", Forecast: "Light Rain"},
			{Name: "Bedok", Forecast: "Cloudy"},
			{Name: "Bishan", Forecast: "Fair"},
		},
	}
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
