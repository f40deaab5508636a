package lta

import (
	"context"
	"encoding/json"

	"smarttravel/internal/cache"
	"smarttravel/internal/lines"
)

const alertsCacheKey = "mrt_alerts"

const missingKeyHint = "Set LTA_API_KEY in the environment"

// envelope is the Datamall response wrapper. Value's shape varies per call
// (list, single object, bare string), so it stays raw until coerceRecords.
type envelope struct {
	Value json.RawMessage `json:"value"`
}

// rawAlert mirrors one TrainServiceAlerts record before normalization.
// Status and Message stay raw: Status may be a number or a string, Message a
// string, a list or an object.
type rawAlert struct {
	Line             string          `json:"Line"`
	Status           json.RawMessage `json:"Status"`
	Message          json.RawMessage `json:"Message"`
	CreatedDate      *string         `json:"CreatedDate"`
	Direction        *string         `json:"Direction"`
	AffectedStations json.RawMessage `json:"AffectedStations"`
	BusShuttle       json.RawMessage `json:"BusShuttle"`
}

// Alerts returns the current train service alerts, served from cache when
// fresh.
func (s *Service) Alerts(ctx context.Context) *AlertsResult {
	v := s.cache.GetOrFetch(ctx, alertsCacheKey, func(ctx context.Context) cache.Value {
		return s.fetchAlerts(ctx)
	})
	return v.(*AlertsResult)
}

func (s *Service) fetchAlerts(ctx context.Context) *AlertsResult {
	if !s.client.HasKey() {
		// Degraded success: one synthetic record pointing at the missing
		// credential, explicitly not a disruption.
		noDisruption := false
		return &AlertsResult{
			OK:            true,
			Source:        sourceName,
			UpdatedAt:     nowUTC(),
			HasDisruption: &noDisruption,
			Alerts: []AlertRecord{{
				Line:    "ALL",
				Status:  "MissingKey",
				Message: strPtr(missingKeyHint),
			}},
		}
	}

	status, body, err := s.client.get(ctx, "/TrainServiceAlerts", nil)
	if err != nil {
		s.logger.Printf("lta: alerts fetch failed: %v", err)
		return alertsFailure(Failure{Error: "upstream", Detail: err.Error()})
	}
	if !ok(status) {
		s.logger.Printf("lta: alerts upstream status=%d", status)
		return alertsFailure(Failure{Error: "upstream_http", Status: status, Body: truncate(body, 800)})
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return alertsFailure(Failure{Error: "upstream", Detail: err.Error()})
	}

	records, err := coerceRecords(env.Value)
	if err != nil {
		res := alertsFailure(Failure{Error: "unexpected_payload", Detail: err.Error()})
		res.Raw = json.RawMessage(body)
		return res
	}

	alerts := make([]AlertRecord, 0, len(records))
	for _, rec := range records {
		a, decodeErr := decodeAlert(rec)
		if decodeErr != nil {
			continue
		}
		if isDisruption(a.Status) {
			alerts = append(alerts, a)
		}
	}

	hasDisruption := len(alerts) > 0
	return &AlertsResult{
		OK:            true,
		Source:        sourceName,
		UpdatedAt:     nowUTC(),
		HasDisruption: &hasDisruption,
		Alerts:        alerts,
	}
}

// decodeAlert turns one raw record (object or bare string) into a normalized
// AlertRecord. A bare string carries only a status and applies to all lines.
func decodeAlert(rec json.RawMessage) (AlertRecord, error) {
	if isJSONString(rec) {
		var status string
		if err := json.Unmarshal(rec, &status); err != nil {
			return AlertRecord{}, err
		}
		return AlertRecord{Line: "ALL", Status: statusText(status)}, nil
	}

	var ra rawAlert
	if err := json.Unmarshal(rec, &ra); err != nil {
		return AlertRecord{}, err
	}
	return AlertRecord{
		Line:       alertLine(ra.Line),
		Status:     normalizeStatus(ra.Status),
		Message:    normalizeMessage(ra.Message),
		Timestamp:  ra.CreatedDate,
		Direction:  ra.Direction,
		Stations:   ra.AffectedStations,
		BusShuttle: ra.BusShuttle,
	}, nil
}

// alertLine maps upstream display names ("North South Line") to short codes.
// Unmapped names pass through unchanged; an absent line is Unknown.
func alertLine(raw string) string {
	if raw == "" {
		return LevelUnknown
	}
	if line, _, resolved := lines.Resolve(raw); resolved {
		return string(line)
	}
	return raw
}

func alertsFailure(f Failure) *AlertsResult {
	return &AlertsResult{
		OK:        false,
		Source:    sourceName,
		UpdatedAt: nowUTC(),
		Alerts:    []AlertRecord{},
		Failure:   f,
	}
}
