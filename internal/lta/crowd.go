package lta

import (
	"context"
	"encoding/json"
	"sort"

	"smarttravel/internal/cache"
	"smarttravel/internal/lines"
)

// Crowd returns the realtime platform crowd snapshot for a line, stations
// ordered topologically, served from cache when fresh.
func (s *Service) Crowd(ctx context.Context, line lines.Line) *CrowdResult {
	key := "pcd_realtime:" + string(line)
	v := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) cache.Value {
		return s.fetchCrowd(ctx, line)
	})
	return v.(*CrowdResult)
}

// CrowdForecast returns the crowd forecast for a line. Unlike the realtime
// feed it falls back to the last cached value (marked stale) when a fresh
// fetch fails.
func (s *Service) CrowdForecast(ctx context.Context, line lines.Line) *ForecastResult {
	key := "pcd_forecast:" + string(line)
	v := s.cache.GetOrFetchStale(ctx, key, func(ctx context.Context) cache.Value {
		return s.fetchForecast(ctx, line)
	})
	return v.(*ForecastResult)
}

func (s *Service) fetchCrowd(ctx context.Context, line lines.Line) *CrowdResult {
	if !s.client.HasKey() {
		return &CrowdResult{OK: false, Line: string(line), Failure: Failure{Error: "missing_key", Detail: missingKeyHint}}
	}

	status, body, err := s.client.get(ctx, "/PCDRealTime", map[string]string{"TrainLine": string(line)})
	if err != nil {
		s.logger.Printf("lta: crowd fetch failed for %s: %v", line, err)
		return &CrowdResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}
	if !ok(status) {
		return &CrowdResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream_http", Status: status, Body: truncate(body, 800)}}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &CrowdResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}
	records, err := coerceRecords(env.Value)
	if err != nil {
		return &CrowdResult{OK: false, Line: string(line), Failure: Failure{Error: "unexpected_payload", Detail: err.Error()}, Raw: json.RawMessage(body)}
	}

	samples := make([]CrowdSample, 0, len(records))
	for _, rec := range records {
		if sample, decoded := decodeCrowdSample(rec); decoded {
			samples = append(samples, sample)
		}
	}
	sortByLine(line, samples, func(cs CrowdSample) (*string, *string) { return cs.StationCode, cs.Station })

	return &CrowdResult{
		OK:        true,
		Source:    sourceName,
		Line:      string(line),
		UpdatedAt: nowUTC(),
		Stations:  samples,
	}
}

func (s *Service) fetchForecast(ctx context.Context, line lines.Line) *ForecastResult {
	if !s.client.HasKey() {
		return &ForecastResult{OK: false, Line: string(line), Failure: Failure{Error: "missing_key", Detail: missingKeyHint}}
	}

	status, body, err := s.client.get(ctx, "/PCDForecast", map[string]string{"TrainLine": string(line)})
	if err != nil {
		s.logger.Printf("lta: forecast fetch failed for %s: %v", line, err)
		return &ForecastResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}
	if !ok(status) {
		return &ForecastResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream_http", Status: status, Body: truncate(body, 800)}}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ForecastResult{OK: false, Line: string(line), Failure: Failure{Error: "upstream", Detail: err.Error()}}
	}
	records, err := coerceRecords(env.Value)
	if err != nil {
		return &ForecastResult{OK: false, Line: string(line), Failure: Failure{Error: "unexpected_payload", Detail: err.Error()}, Raw: json.RawMessage(body)}
	}

	slots := make([]ForecastSlot, 0, len(records))
	for _, rec := range records {
		if slot, decoded := decodeForecastSlot(rec); decoded {
			slots = append(slots, slot)
		}
	}
	sortByLine(line, slots, func(fs ForecastSlot) (*string, *string) { return fs.StationCode, fs.Station })

	return &ForecastResult{
		OK:        true,
		Source:    sourceName,
		Line:      string(line),
		UpdatedAt: nowUTC(),
		Forecast:  slots,
	}
}

// decodeCrowdSample normalizes one realtime record. A bare string is treated
// as a crowd token with no station attached.
func decodeCrowdSample(rec json.RawMessage) (CrowdSample, bool) {
	if isJSONString(rec) {
		var token string
		if err := json.Unmarshal(rec, &token); err != nil {
			return CrowdSample{}, false
		}
		level, score := crowdLevel(&token)
		return CrowdSample{CrowdLevel: level, CrowdScore: score, RawLevel: &token}, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(rec, &obj); err != nil {
		return CrowdSample{}, false
	}

	code := asString(firstKey(obj, stationCodeKeys))
	name := asString(firstKey(obj, stationNameKeys))
	rawLevel := asString(firstKey(obj, crowdLevelKeys))
	lastUpdate := asString(firstKey(obj, lastUpdateKeys))

	if code == nil && name != nil {
		if inferred := lines.InferCode(*name); inferred != "" {
			code = &inferred
		}
	}

	level, score := crowdLevel(rawLevel)
	return CrowdSample{
		StationCode: code,
		Station:     name,
		CrowdLevel:  level,
		CrowdScore:  score,
		RawLevel:    rawLevel,
		LastUpdate:  lastUpdate,
	}, true
}

func decodeForecastSlot(rec json.RawMessage) (ForecastSlot, bool) {
	if isJSONString(rec) {
		var token string
		if err := json.Unmarshal(rec, &token); err != nil {
			return ForecastSlot{}, false
		}
		level, score := crowdLevel(&token)
		return ForecastSlot{CrowdLevel: level, CrowdScore: score, RawLevel: &token}, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(rec, &obj); err != nil {
		return ForecastSlot{}, false
	}

	code := asString(firstKey(obj, stationCodeKeys[:1]))
	name := asString(firstKey(obj, stationNameKeys))
	timeSlot := asString(firstKey(obj, timeSlotKeys))
	rawLevel := asString(firstKey(obj, crowdLevelKeys[:2]))

	if code == nil && name != nil {
		if inferred := lines.InferCode(*name); inferred != "" {
			code = &inferred
		}
	}

	level, score := crowdLevel(rawLevel)
	return ForecastSlot{
		StationCode: code,
		Station:     name,
		TimeSlot:    timeSlot,
		CrowdLevel:  level,
		CrowdScore:  score,
		RawLevel:    rawLevel,
	}, true
}

// sortByLine orders records along the line using the station ranker. Records
// with no usable code or name sort last in input order.
func sortByLine[T any](line lines.Line, items []T, ref func(T) (*string, *string)) {
	type ranked struct {
		key lines.RankKey
		val T
	}
	rs := make([]ranked, len(items))
	for i, it := range items {
		code, name := ref(it)
		target := ""
		switch {
		case code != nil:
			target = *code
		case name != nil:
			target = *name
		}
		rs[i] = ranked{key: lines.Rank(line, target), val: it}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].key.Less(rs[j].key) })
	for i := range rs {
		items[i] = rs[i].val
	}
}
