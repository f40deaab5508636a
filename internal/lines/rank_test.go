package lines

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdersStationsAlongLine(t *testing.T) {
	codes := []string{"EW5", "CG1", "EW2"}
	sort.Slice(codes, func(i, j int) bool {
		return Rank(EWL, codes[i]).Less(Rank(EWL, codes[j]))
	})
	// EW prefix before CG prefix, numeric ascending within each group.
	assert.Equal(t, []string{"EW2", "EW5", "CG1"}, codes)
}

func TestRankFallbacks(t *testing.T) {
	// Foreign prefix with a parseable number ranks generic (98).
	k := Rank(NSL, "DT14")
	assert.Equal(t, rankGeneric, k.PrefixRank)
	assert.Equal(t, 14, k.Number)

	// Unparseable suffix sorts last within its prefix group.
	k = Rank(NSL, "NSX")
	assert.Equal(t, 0, k.PrefixRank)
	assert.Equal(t, noNumber, k.Number)

	// Empty and junk inputs sort after everything.
	assert.Equal(t, rankUnknown, Rank(NSL, "").PrefixRank)
	assert.Equal(t, rankUnknown, Rank(NSL, "7?").PrefixRank)

	// A full ordering mixing all ranks.
	codes := []string{"", "ZZ3", "NS14", "NS2"}
	sort.Slice(codes, func(i, j int) bool {
		return Rank(NSL, codes[i]).Less(Rank(NSL, codes[j]))
	})
	assert.Equal(t, []string{"NS2", "NS14", "ZZ3", ""}, codes)
}

func TestSplitCode(t *testing.T) {
	prefix, num, ok := SplitCode("ns14")
	assert.True(t, ok)
	assert.Equal(t, "NS", prefix)
	assert.Equal(t, 14, num)

	for _, bad := range []string{"", "NS", "14", "NS1a"} {
		_, _, ok := SplitCode(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestInferCode(t *testing.T) {
	assert.Equal(t, "NS14", InferCode("ns14"))
	assert.Equal(t, "EW2", InferCode(" EW2 "))
	assert.Equal(t, "", InferCode("Bishan"))
	assert.Equal(t, "", InferCode("N1"))
	assert.Equal(t, "", InferCode("NS"))
	assert.Equal(t, "", InferCode("NS14A"))
}
