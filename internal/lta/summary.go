package lta

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"smarttravel/internal/lines"

	"golang.org/x/sync/errgroup"
)

const defaultPinchCount = 3

// Summary fuses the alerts and crowd feeds for a line into one rider-facing
// view: level counts, top-k pinch points and a one-sentence summary. The two
// sub-fetches run concurrently and are cached independently; the fused result
// itself is never cached.
func (s *Service) Summary(ctx context.Context, lineInput string, k int, fromStation, toStation string) *SummaryResult {
	line, norm, resolved := lines.Resolve(lineInput)
	if !resolved {
		return &SummaryResult{
			OK:         false,
			Error:      "invalid_line",
			Normalized: norm,
			Supported:  lines.Supported(),
		}
	}

	var (
		alerts *AlertsResult
		crowd  *CrowdResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		alerts = s.Alerts(gctx)
		return nil
	})
	g.Go(func() error {
		crowd = s.Crowd(gctx, line)
		return nil
	})
	_ = g.Wait()

	if !alerts.OK || !crowd.OK {
		return &SummaryResult{
			OK:       false,
			Error:    "upstream_error",
			Line:     string(line),
			AlertsOK: &alerts.OK,
			CrowdOK:  &crowd.OK,
		}
	}

	stations, segment := filterSegment(crowd.Stations, fromStation, toStation)
	lineAlerts := alertsForLine(alerts.Alerts, line)
	hasDisruption := len(lineAlerts) > 0

	counts := CrowdCounts{}
	maxScore := 0.0
	for _, st := range stations {
		switch st.CrowdLevel {
		case LevelLow:
			counts.Low++
		case LevelMedium:
			counts.Medium++
		case LevelHigh:
			counts.High++
		default:
			counts.Unknown++
		}
		if st.CrowdScore > maxScore {
			maxScore = st.CrowdScore
		}
	}

	pinch := pinchPoints(stations, k)

	return &SummaryResult{
		OK:            true,
		Line:          string(line),
		Segment:       segment,
		StationCount:  len(stations),
		Counts:        &counts,
		PinchPoints:   pinch,
		MaxCrowdScore: round2(maxScore),
		HasDisruption: hasDisruption,
		Alerts:        lineAlerts,
		Summary:       sentence(line, segment, stations, counts, pinch, hasDisruption),
	}
}

// filterSegment restricts stations to the inclusive range between two station
// codes. It applies only when both codes parse and share the same alphabetic
// prefix; argument order does not matter.
func filterSegment(stations []CrowdSample, fromStation, toStation string) ([]CrowdSample, *Segment) {
	fromPrefix, fromNum, okFrom := lines.SplitCode(fromStation)
	toPrefix, toNum, okTo := lines.SplitCode(toStation)
	if !okFrom || !okTo || fromPrefix != toPrefix {
		return stations, nil
	}

	lo, hi := fromNum, toNum
	if lo > hi {
		lo, hi = hi, lo
	}

	filtered := make([]CrowdSample, 0, len(stations))
	for _, st := range stations {
		code := stationCodeOf(st)
		prefix, num, parsed := lines.SplitCode(code)
		if parsed && prefix == fromPrefix && num >= lo && num <= hi {
			filtered = append(filtered, st)
		}
	}

	seg := &Segment{
		From: strings.ToUpper(strings.TrimSpace(fromStation)),
		To:   strings.ToUpper(strings.TrimSpace(toStation)),
	}
	return filtered, seg
}

// stationCodeOf prefers the explicit code, then a code inferred from the
// name.
func stationCodeOf(st CrowdSample) string {
	if st.StationCode != nil {
		return *st.StationCode
	}
	if st.Station != nil {
		return lines.InferCode(*st.Station)
	}
	return ""
}

// pinchPoints picks the k stations with the highest crowd score, ties broken
// by original (topological) order.
func pinchPoints(stations []CrowdSample, k int) []PinchPoint {
	if k <= 0 {
		k = defaultPinchCount
	}

	idx := make([]int, len(stations))
	for i := range idx {
		idx[i] = i
	}
	// Stable sort on descending score keeps tied stations in line order.
	sort.SliceStable(idx, func(i, j int) bool {
		return stations[idx[i]].CrowdScore > stations[idx[j]].CrowdScore
	})

	n := min(k, len(stations))
	out := make([]PinchPoint, 0, n)
	for _, i := range idx[:n] {
		st := stations[i]
		out = append(out, PinchPoint{
			Label:      pinchLabel(st),
			CrowdLevel: st.CrowdLevel,
			CrowdScore: st.CrowdScore,
		})
	}
	return out
}

// pinchLabel falls back from station code to name when one is missing.
func pinchLabel(st CrowdSample) string {
	if st.StationCode != nil && *st.StationCode != "" {
		return *st.StationCode
	}
	if st.Station != nil && *st.Station != "" {
		return *st.Station
	}
	return "unknown"
}

// alertsForLine keeps alerts targeting the requested line or all lines. The
// incoming list is already disruptions-only.
func alertsForLine(alerts []AlertRecord, line lines.Line) []AlertRecord {
	out := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		if a.Line == string(line) || a.Line == "ALL" {
			out = append(out, a)
		}
	}
	return out
}

// sentence builds the one-line natural-language summary, e.g.
// "NSL mostly Low. pinch at NS14. no service alerts."
func sentence(line lines.Line, segment *Segment, stations []CrowdSample, counts CrowdCounts, pinch []PinchPoint, hasDisruption bool) string {
	alertClause := "no service alerts"
	if hasDisruption {
		alertClause = "service alert active"
	}

	if len(stations) == 0 {
		return fmt.Sprintf("%s crowd data unavailable. %s.", line, alertClause)
	}

	head := string(line)
	if segment != nil {
		head += " " + segment.From + "→" + segment.To
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s mostly %s", head, majorityLevel(counts))
	if len(pinch) > 0 {
		labels := make([]string, len(pinch))
		for i, p := range pinch {
			labels[i] = p.Label
		}
		b.WriteString(". pinch at " + strings.Join(labels, ", "))
	}
	b.WriteString(". " + alertClause + ".")
	return b.String()
}

// majorityLevel is the most common crowd level; on a tie the first of
// Low/Medium/High/Unknown wins.
func majorityLevel(counts CrowdCounts) string {
	level, best := LevelLow, counts.Low
	for _, c := range []struct {
		level string
		n     int
	}{
		{LevelMedium, counts.Medium},
		{LevelHigh, counts.High},
		{LevelUnknown, counts.Unknown},
	} {
		if c.n > best {
			level, best = c.level, c.n
		}
	}
	return level
}
