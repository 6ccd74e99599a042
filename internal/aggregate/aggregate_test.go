package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maulikam/data-analysis/internal/compare"
)

func m(a, b string, s float64) compare.Match {
	return compare.Match{ColumnA: a, ColumnB: b, Score: s}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Exact, false},
		{"exact", Exact, false},
		{" MAX ", Max, false},
		{"mean", Mean, false},
		{"median", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestExactDedupAndSort(t *testing.T) {
	in := []compare.Match{
		m("a", "x", 0.85),
		m("b", "y", 0.95),
		m("a", "x", 0.85),
		m("a", "x", 0.90),
	}
	got, err := Apply(in, Exact)
	require.NoError(t, err)
	assert.Equal(t, []compare.Match{
		m("b", "y", 0.95),
		m("a", "x", 0.90),
		m("a", "x", 0.85),
	}, got)
	assert.Len(t, in, 4, "input untouched")
}

func TestTiesKeepFirstSeenOrder(t *testing.T) {
	in := []compare.Match{
		m("c", "z", 0.9),
		m("a", "x", 0.9),
		m("b", "y", 0.9),
	}
	for _, p := range []Policy{Exact, Max, Mean} {
		got, err := Apply(in, p)
		require.NoError(t, err)
		assert.Equal(t, in, got, string(p))
	}
}

func TestMaxAndMean(t *testing.T) {
	in := []compare.Match{
		m("a", "x", 0.82),
		m("b", "y", 0.99),
		m("a", "x", 0.90),
		m("a", "x", 0.86),
	}

	got, err := Apply(in, Max)
	require.NoError(t, err)
	assert.Equal(t, []compare.Match{m("b", "y", 0.99), m("a", "x", 0.90)}, got)

	got, err = Apply(in, Mean)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, m("b", "y", 0.99), got[0])
	assert.Equal(t, "a", got[1].ColumnA)
	assert.InDelta(t, 0.86, got[1].Score, 1e-9)
}

func TestEmptyAndUnknown(t *testing.T) {
	got, err := Apply(nil, Exact)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Apply([]compare.Match{m("a", "b", 1)}, Policy("median"))
	assert.Error(t, err)
}
