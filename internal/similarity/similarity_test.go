package similarity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maulikam/data-analysis/internal/dataset"
)

func column(name string, typ dataset.Type, cells ...string) *dataset.Column {
	c := dataset.NewColumn(name)
	c.Type = typ
	for _, v := range cells {
		c.Append(v)
	}
	return c
}

func quiet() Options {
	opt := DefaultOptions()
	opt.Logf = func(string, ...any) {}
	return opt
}

func TestIdenticalNumericScoresOne(t *testing.T) {
	s := New(quiet())
	a := column("x", dataset.Numeric, "3", "1", "4", "1", "5", "9")
	got, err := s.Compare(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestIdenticalStringScoresOne(t *testing.T) {
	s := New(quiet())
	a := column("city", dataset.String, "New York", "Paris", "Tokyo", "São Paulo")
	got, err := s.Compare(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestLinearNumericScoresOne(t *testing.T) {
	s := New(quiet())
	price := column("price", dataset.Numeric, "10", "20", "30")
	cost := column("cost", dataset.Numeric, "11", "21", "31")
	got, err := s.Compare(price, cost)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
	assert.Equal(t, "1.00", fmt.Sprintf("%.2f", got))
}

func TestNegativeCorrelationIsAbsolute(t *testing.T) {
	s := New(quiet())
	a := column("a", dataset.Numeric, "1", "2", "3", "4")
	b := column("b", dataset.Numeric, "8", "6", "4", "2")
	got, err := s.Compare(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestUnrelatedStringsScoreLow(t *testing.T) {
	s := New(quiet())
	name := column("name", dataset.String, "alice", "bob", "carol")
	town := column("town", dataset.String, "paris", "london", "rome")
	got, err := s.Compare(name, town)
	require.NoError(t, err)
	assert.Less(t, got, 0.8)
}

func TestTypeMismatchScoresZero(t *testing.T) {
	s := New(quiet())
	cases := []struct {
		name string
		a, b dataset.Type
	}{
		{"numeric vs string", dataset.Numeric, dataset.String},
		{"string vs numeric", dataset.String, dataset.Numeric},
		{"unknown vs unknown", dataset.Unknown, dataset.Unknown},
		{"unknown vs numeric", dataset.Unknown, dataset.Numeric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := column("id", tc.a, "1", "2", "3")
			b := column("id", tc.b, "1", "2", "3")
			got, err := s.Compare(a, b)
			require.NoError(t, err)
			assert.Equal(t, 0.0, got)
		})
	}
}

func TestMissingNumbersReadAsZero(t *testing.T) {
	s := New(quiet())
	a := column("a", dataset.Numeric, "1", "", "3", "NA")
	b := column("b", dataset.Numeric, "2", "0", "6", "0")
	got, err := s.Compare(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestLengthPolicy(t *testing.T) {
	a := column("a", dataset.Numeric, "1", "2", "3", "4")
	b := column("b", dataset.Numeric, "2", "4", "6")

	_, err := New(quiet()).Compare(a, b)
	var pe *PairError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, FailureLengthMismatch, pe.Kind)

	opt := quiet()
	opt.NumericLength = LengthTruncate
	got, err := New(opt).Compare(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		a, b *dataset.Column
		kind FailureKind
	}{
		{
			name: "constant numeric",
			a:    column("a", dataset.Numeric, "5", "5", "5"),
			b:    column("b", dataset.Numeric, "1", "2", "3"),
			kind: FailureUndefined,
		},
		{
			name: "single value",
			a:    column("a", dataset.Numeric, "5"),
			b:    column("b", dataset.Numeric, "7"),
			kind: FailureUndefined,
		},
		{
			name: "non numeric cell",
			a:    column("a", dataset.Numeric, "1", "two", "3"),
			b:    column("b", dataset.Numeric, "1", "2", "3"),
			kind: FailureParse,
		},
		{
			name: "no tokens",
			a:    column("a", dataset.String, "a", "b"),
			b:    column("b", dataset.String, "x", "y"),
			kind: FailureZeroVector,
		},
		{
			name: "empty column",
			a:    column("a", dataset.String),
			b:    column("b", dataset.String, "hello"),
			kind: FailureEmpty,
		},
	}
	s := New(quiet())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Compare(tc.a, tc.b)
			assert.Equal(t, 0.0, got)
			var pe *PairError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.kind, pe.Kind)
			assert.Equal(t, "a", pe.ColumnA)
			assert.Equal(t, "b", pe.ColumnB)
		})
	}
}

func TestScoreFallsBackToZero(t *testing.T) {
	var logged []string
	opt := DefaultOptions()
	opt.Logf = func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}
	s := New(opt)

	res := s.Score(
		column("a", dataset.Numeric, "5", "5", "5"),
		column("b", dataset.Numeric, "1", "2", "3"),
	)
	assert.Equal(t, 0.0, res.Value)
	require.NotNil(t, res.Err)
	assert.Equal(t, FailureUndefined, res.Err.Kind)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "score: score a/b: undefined_correlation")

	ok := s.Score(
		column("a", dataset.Numeric, "1", "2", "3"),
		column("b", dataset.Numeric, "1", "2", "3"),
	)
	assert.Nil(t, ok.Err)
	assert.InDelta(t, 1.0, ok.Value, 1e-9)
	assert.Len(t, logged, 1)
}

func TestPairErrorUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := error(&PairError{ColumnA: "a", ColumnB: "b", Kind: FailurePanic, Err: base})
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "score a/b: panic: boom", err.Error())
}

func TestDeterministic(t *testing.T) {
	s := New(quiet())
	a := column("a", dataset.String, "red apple", "green pear", "yellow banana")
	b := column("b", dataset.String, "red pear", "green apple", "blue plum")
	first, err := s.Compare(a, b)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Compare(a, b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
