package lines

import (
	"strconv"
	"strings"
)

// Ranks assigned when a station code matches none of the line's registered
// prefixes: 98 for anything that still looks like a station code (two leading
// letters), 99 for everything else so it sorts after all real stations.
const (
	rankGeneric = 98
	rankUnknown = 99
)

// sentinel numeric suffix for codes whose digits cannot be parsed; sorts the
// code last within its prefix group.
const noNumber = 1 << 20

// RankKey is a sortable position of a station along a line. Sorting ascending
// on (PrefixRank, Number, Orig) orders stations topologically.
type RankKey struct {
	PrefixRank int
	Number     int
	Orig       string
}

// Less reports whether k sorts before other.
func (k RankKey) Less(other RankKey) bool {
	if k.PrefixRank != other.PrefixRank {
		return k.PrefixRank < other.PrefixRank
	}
	if k.Number != other.Number {
		return k.Number < other.Number
	}
	return k.Orig < other.Orig
}

// Rank derives the sort key for a station code (or code-shaped name) relative
// to a line. Codes matching a registered prefix rank by the prefix's position
// in the registry list and the integer suffix after it.
func Rank(l Line, codeOrName string) RankKey {
	s := strings.ToUpper(strings.TrimSpace(codeOrName))
	if s == "" {
		return RankKey{PrefixRank: rankUnknown, Number: noNumber, Orig: s}
	}
	for i, p := range Prefixes(l) {
		if strings.HasPrefix(s, p) {
			return RankKey{PrefixRank: i, Number: suffixNumber(s[len(p):]), Orig: s}
		}
	}
	if len(s) >= 2 && isAlpha(s[0]) && isAlpha(s[1]) {
		return RankKey{PrefixRank: rankGeneric, Number: suffixNumber(s[2:]), Orig: s}
	}
	return RankKey{PrefixRank: rankUnknown, Number: noNumber, Orig: s}
}

// SplitCode breaks a station code into its alphabetic prefix and numeric
// suffix. ok is false when either part is missing or the suffix is not a
// plain integer.
func SplitCode(code string) (prefix string, num int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(code))
	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}

// InferCode guesses a station code from a station name of the form
// "<2 letters><digits>". Returns "" when the name does not look like a code.
// Used when the upstream row carries a name but no explicit code field.
func InferCode(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	if len(s) < 3 || !isAlpha(s[0]) || !isAlpha(s[1]) {
		return ""
	}
	for i := 2; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s
}

func suffixNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return noNumber
	}
	return n
}

func isAlpha(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
