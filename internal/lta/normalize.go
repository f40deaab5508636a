package lta

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

// errUnexpectedShape flags a top-level payload that is neither list, object,
// string nor null. The call is unrecoverable; the raw payload is attached to
// the failure result for diagnostics.
var errUnexpectedShape = errors.New("unexpected payload shape")

// Ordered candidate field names for duck-typed extraction: the first present
// non-empty value wins. Kept as data so new upstream spellings are one-line
// additions.
var (
	messageKeys     = []string{"Message", "Detail", "Description", "Remarks"}
	stationCodeKeys = []string{"StationCode", "Station_id", "Code"}
	stationNameKeys = []string{"Station", "StationName"}
	crowdLevelKeys  = []string{"CrowdLevel", "Crowd", "Load"}
	lastUpdateKeys  = []string{"LastUpdate", "AsAt", "Timestamp"}
	timeSlotKeys    = []string{"TimeSlot", "Time", "DateTime"}
)

// Statuses that mean "nothing is wrong"; alerts carrying them are dropped,
// not merely flagged.
var allClearStatuses = map[string]bool{
	"No Service Alert": true,
	"Normal":           true,
	"All Clear":        true,
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// coerceRecords absorbs the upstream's top-level shape variance in one step:
// null becomes an empty list, a single object or bare string becomes a
// one-element list, a list passes through. Anything else (number, bool) is
// errUnexpectedShape. Business logic past this point only ever sees a list.
func coerceRecords(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{', '"':
		return []json.RawMessage{trimmed}, nil
	default:
		return nil, errUnexpectedShape
	}
}

// isJSONString reports whether a raw value is a bare string.
func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// normalizeStatus maps numeric status codes to friendly text and passes
// strings through trimmed. Unknown numeric codes stringify verbatim.
func normalizeStatus(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return LevelUnknown
	}
	if isJSONString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return statusText(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			switch i {
			case 0, 1:
				return "No Service Alert"
			case 2:
				return "Minor Disruption"
			case 3:
				return "Major Disruption"
			}
		}
		return n.String()
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return LevelUnknown
	}
	return string(raw)
}

func statusText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelUnknown
	}
	return s
}

// normalizeMessage flattens the upstream's free-form message value into a
// single trimmed string, or nil when nothing usable is present. Lists are
// joined by single spaces; objects are probed with messageKeys.
func normalizeMessage(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		return nonEmpty(s)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		var parts []string
		for _, it := range items {
			var s string
			if isJSONString(it) {
				if err := json.Unmarshal(it, &s); err != nil {
					continue
				}
			} else {
				s = string(bytes.TrimSpace(it))
			}
			if s = strings.TrimSpace(s); s != "" && s != "null" {
				parts = append(parts, s)
			}
		}
		return nonEmpty(strings.Join(parts, " "))

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		for _, k := range messageKeys {
			v, present := obj[k]
			if !present || !isJSONString(v) {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				continue
			}
			if m := nonEmpty(s); m != nil {
				return m
			}
		}
		s := string(trimmed)
		return &s

	default:
		s := string(trimmed)
		return &s
	}
}

// crowdLevel derives the canonical (level, score) pair from the first
// lowercase character of the raw token: l/m/h. Anything else is Unknown/0.
func crowdLevel(raw *string) (string, float64) {
	if raw == nil {
		return LevelUnknown, 0.0
	}
	token := strings.TrimSpace(*raw)
	if token == "" {
		return LevelUnknown, 0.0
	}
	switch strings.ToLower(token[:1]) {
	case "l":
		return LevelLow, 0.25
	case "m":
		return LevelMedium, 0.60
	case "h":
		return LevelHigh, 0.90
	default:
		return LevelUnknown, 0.0
	}
}

// isDisruption reports whether a normalized status counts as an active
// disruption.
func isDisruption(status string) bool {
	return !allClearStatuses[strings.TrimSpace(status)]
}

// firstKey probes obj with the ordered candidate names and returns the first
// value that is present.
func firstKey(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, present := obj[k]; present && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

// asString renders a raw JSON scalar as a string pointer: strings decode,
// numbers format, everything else compacts verbatim. nil for null/absent.
func asString(raw json.RawMessage, present bool) *string {
	if !present {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return &s
		}
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		s := n.String()
		return &s
	}
	s := string(trimmed)
	return &s
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string { return &s }

// truncate limits upstream error bodies carried in failure results.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}

// round2 rounds a score to two decimals for presentation.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
