package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maulikam/data-analysis/internal/classify"
	"github.com/maulikam/data-analysis/internal/dataset"
	"github.com/maulikam/data-analysis/internal/similarity"
)

func load(t *testing.T, header []string, rows ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(dataset.NewSliceReader(header, rows))
	require.NoError(t, err)
	classify.Dataset(ds).Apply(ds)
	return ds
}

func processor() *Processor {
	opt := similarity.DefaultOptions()
	opt.Logf = func(string, ...any) {}
	return New(similarity.New(opt), DefaultThreshold)
}

func TestProcessFindsLinearColumns(t *testing.T) {
	a := load(t, []string{"price", "label"},
		[]string{"10", "x"}, []string{"20", "y"}, []string{"30", "z"})
	b := load(t, []string{"cost", "code"},
		[]string{"11", "p"}, []string{"21", "q"}, []string{"31", "r"})

	got, st, err := processor().Process(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "price", got[0].ColumnA)
	assert.Equal(t, "cost", got[0].ColumnB)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, Stats{Pairs: 4, Skipped: 2, Failed: 1, Matched: 1}, st)
}

func TestProcessExcludesTypeMismatch(t *testing.T) {
	a := load(t, []string{"id"}, []string{"1"}, []string{"2"}, []string{"3"})
	b := load(t, []string{"id"}, []string{"A1"}, []string{"B2"}, []string{"C3"})

	got, st, err := processor().Process(context.Background(), a, b)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, st.Skipped)
}

func TestProcessOrderAndThreshold(t *testing.T) {
	a := load(t, []string{"x", "y"},
		[]string{"1", "3"}, []string{"2", "1"}, []string{"3", "2"})
	b := load(t, []string{"p", "q"},
		[]string{"2", "9"}, []string{"4", "1"}, []string{"6", "5"})

	p := processor()
	got, _, err := p.Process(context.Background(), a, b)
	require.NoError(t, err)
	for _, m := range got {
		assert.Greater(t, m.Score, p.Threshold)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, Match{ColumnA: "x", ColumnB: "p", Score: got[0].Score}, got[0])
}

func TestProcessThresholdIsStrict(t *testing.T) {
	a := load(t, []string{"x"}, []string{"1"}, []string{"2"}, []string{"3"})
	b := load(t, []string{"y"}, []string{"1"}, []string{"2"}, []string{"3"})

	p := processor()
	p.Threshold = 1.0
	got, _, err := p.Process(context.Background(), a, b)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProcessCanceled(t *testing.T) {
	a := load(t, []string{"x"}, []string{"1"}, []string{"2"})
	b := load(t, []string{"y"}, []string{"1"}, []string{"2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := processor().Process(ctx, a, b)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComparable(t *testing.T) {
	assert.True(t, Comparable(dataset.String, dataset.String))
	assert.True(t, Comparable(dataset.Numeric, dataset.Numeric))
	assert.False(t, Comparable(dataset.Numeric, dataset.String))
	assert.False(t, Comparable(dataset.Unknown, dataset.Unknown))
}
