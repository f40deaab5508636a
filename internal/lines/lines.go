// Package lines holds the static registry of supported MRT/LRT lines and the
// station ranking logic used to order stations along a line.
package lines

import (
	"sort"
	"strings"
)

// Line is the canonical short code for a supported rail line (e.g. "NSL").
type Line string

const (
	CCL  Line = "CCL"
	CEL  Line = "CEL"
	CGL  Line = "CGL"
	DTL  Line = "DTL"
	EWL  Line = "EWL"
	NEL  Line = "NEL"
	NSL  Line = "NSL"
	TEL  Line = "TEL"
	BPL  Line = "BPL"
	SLRT Line = "SLRT"
	PLRT Line = "PLRT"
)

// aliases maps every accepted spelling (after normalization: uppercased,
// trimmed, hyphens replaced by spaces) to its canonical code.
var aliases = map[string]Line{
	"CCL":         CCL,
	"CIRCLE":      CCL,
	"CIRCLE LINE": CCL,

	"CEL":                   CEL,
	"CIRCLE LINE EXTENSION": CEL,

	"CGL":                   CGL,
	"CHANGI":                CGL,
	"CHANGI EXTENSION":      CGL,
	"CHANGI AIRPORT BRANCH": CGL,

	"DTL":           DTL,
	"DOWNTOWN":      DTL,
	"DOWNTOWN LINE": DTL,

	"EWL":            EWL,
	"EAST WEST":      EWL,
	"EAST WEST LINE": EWL,

	"NEL":             NEL,
	"NORTH EAST":      NEL,
	"NORTH EAST LINE": NEL,

	"NSL":              NSL,
	"NORTH SOUTH":      NSL,
	"NORTH SOUTH LINE": NSL,

	"TEL":                     TEL,
	"THOMSON EAST COAST":      TEL,
	"THOMSON EAST COAST LINE": TEL,

	"BPL":               BPL,
	"BUKIT PANJANG":     BPL,
	"BUKIT PANJANG LRT": BPL,

	"SLRT":         SLRT,
	"SENGKANG":     SLRT,
	"SENGKANG LRT": SLRT,

	"PLRT":        PLRT,
	"PUNGGOL":     PLRT,
	"PUNGGOL LRT": PLRT,
}

// prefixes lists station-code prefixes per line, in topological order. EWL
// carries CG as well because the Changi branch shares the East-West system.
var prefixes = map[Line][]string{
	CCL:  {"CC"},
	CEL:  {"CE"},
	CGL:  {"CG"},
	DTL:  {"DT"},
	EWL:  {"EW", "CG"},
	NEL:  {"NE"},
	NSL:  {"NS"},
	TEL:  {"TE"},
	BPL:  {"BP"},
	SLRT: {"SE", "SW"},
	PLRT: {"PE", "PW"},
}

// Normalize applies the registry's input normalization: uppercase, trim, and
// hyphens replaced by spaces.
func Normalize(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	return strings.ReplaceAll(s, "-", " ")
}

// Resolve maps any accepted alias (full name, abbreviation or short code,
// case-insensitive) to its canonical line code. The normalized form of the
// input is returned either way so callers can echo it back on failure.
func Resolve(input string) (Line, string, bool) {
	norm := Normalize(input)
	line, ok := aliases[norm]
	return line, norm, ok
}

// Supported returns the sorted set of canonical line codes.
func Supported() []string {
	seen := make(map[Line]bool, len(prefixes))
	out := make([]string, 0, len(prefixes))
	for _, l := range aliases {
		if !seen[l] {
			seen[l] = true
			out = append(out, string(l))
		}
	}
	sort.Strings(out)
	return out
}

// Prefixes returns the station-code prefixes registered for a line, in
// topological order along the line.
func Prefixes(l Line) []string {
	return prefixes[l]
}
