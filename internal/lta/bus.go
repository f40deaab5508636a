package lta

import (
	"context"
	"encoding/json"
	"time"

	"smarttravel/internal/cache"
)

// rawBusPayload mirrors the v3 BusArrival response. Unlike the rail feeds
// this one has a stable shape, so it decodes straight into structs.
type rawBusPayload struct {
	BusStopCode string          `json:"BusStopCode"`
	Services    []rawBusService `json:"Services"`
}

type rawBusService struct {
	ServiceNo string `json:"ServiceNo"`
	Operator  string `json:"Operator"`
	NextBus   rawBus `json:"NextBus"`
	NextBus2  rawBus `json:"NextBus2"`
	NextBus3  rawBus `json:"NextBus3"`
}

type rawBus struct {
	OriginCode       string `json:"OriginCode"`
	DestinationCode  string `json:"DestinationCode"`
	EstimatedArrival string `json:"EstimatedArrival"`
	Monitored        *int   `json:"Monitored"`
	Load             string `json:"Load"`
	Feature          string `json:"Feature"`
	Type             string `json:"Type"`
	Latitude         string `json:"Latitude"`
	Longitude        string `json:"Longitude"`
	VisitNumber      string `json:"VisitNumber"`
}

// BusArrivals returns normalized arrivals for a stop, optionally restricted
// to one service. Each (stop, service) pair caches independently.
func (s *Service) BusArrivals(ctx context.Context, stop, service string) *BusResult {
	key := "bus_arrivals:" + stop + ":" + serviceOrWildcard(service)
	v := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) cache.Value {
		return s.fetchBusArrivals(ctx, stop, service)
	})
	return v.(*BusResult)
}

func serviceOrWildcard(service string) string {
	if service == "" {
		return "*"
	}
	return service
}

func (s *Service) fetchBusArrivals(ctx context.Context, stop, service string) *BusResult {
	if !s.client.HasKey() {
		return &BusResult{OK: false, Failure: Failure{Error: "missing_key", Detail: missingKeyHint}}
	}

	params := map[string]string{"BusStopCode": stop}
	if service != "" {
		params["ServiceNo"] = service
	}

	status, body, err := s.client.get(ctx, "/v3/BusArrival", params)
	if err != nil {
		s.logger.Printf("lta: bus arrivals fetch failed for %s: %v", stop, err)
		return &BusResult{OK: false, Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}
	if !ok(status) {
		return &BusResult{OK: false, Failure: Failure{Error: "upstream_http", Status: status, Body: truncate(body, 800)}}
	}

	var payload rawBusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return &BusResult{OK: false, Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}

	now := time.Now()
	services := make([]BusService, 0, len(payload.Services))
	for _, svc := range payload.Services {
		services = append(services, BusService{
			ServiceNo: svc.ServiceNo,
			Operator:  svc.Operator,
			Next:      normalizeBusLeg(svc.NextBus, now),
			Next2:     normalizeBusLeg(svc.NextBus2, now),
			Next3:     normalizeBusLeg(svc.NextBus3, now),
		})
	}

	stopCode := payload.BusStopCode
	if stopCode == "" {
		stopCode = stop
	}

	return &BusResult{
		OK:          true,
		BusStopCode: stopCode,
		UpdatedAt:   nowUTC(),
		Services:    services,
	}
}

func normalizeBusLeg(b rawBus, now time.Time) BusLeg {
	return BusLeg{
		OriginCode:       nonEmpty(b.OriginCode),
		DestinationCode:  nonEmpty(b.DestinationCode),
		EstimatedArrival: nonEmpty(b.EstimatedArrival),
		ETAMin:           etaMinutes(b.EstimatedArrival, now),
		Monitored:        b.Monitored,
		Load:             nonEmpty(b.Load),
		Feature:          nonEmpty(b.Feature),
		Type:             nonEmpty(b.Type),
		Lat:              nonEmpty(b.Latitude),
		Lng:              nonEmpty(b.Longitude),
		VisitNumber:      nonEmpty(b.VisitNumber),
	}
}

// etaMinutes is floor((arrival-now)/60) clamped to zero; nil when the arrival
// timestamp is absent or unparseable.
func etaMinutes(arrival string, now time.Time) *int {
	if arrival == "" {
		return nil
	}
	when, err := time.Parse(time.RFC3339, arrival)
	if err != nil {
		return nil
	}
	mins := int(when.Sub(now).Minutes())
	if mins < 0 {
		mins = 0
	}
	return &mins
}
