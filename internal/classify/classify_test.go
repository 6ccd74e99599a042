package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maulikam/data-analysis/internal/dataset"
)

func TestValues(t *testing.T) {
	tests := []struct {
		name string
		vals []string
		want dataset.Type
	}{
		{"no values", nil, dataset.Unknown},
		{"only missing", []string{"", "NA", " "}, dataset.Unknown},
		{"integers", []string{"1", "-2", "300"}, dataset.Numeric},
		{"floats and ints", []string{"1.5", "2", "3e4"}, dataset.Numeric},
		{"integers with gaps", []string{"1", "", "3"}, dataset.Numeric},
		{"booleans", []string{"True", "false", "TRUE"}, dataset.Numeric},
		{"numbers and booleans", []string{"1", "true"}, dataset.String},
		{"text", []string{"alice", "bob"}, dataset.String},
		{"mostly numbers", []string{"1", "2", "three"}, dataset.String},
		{"dates stay text", []string{"2024-01-01"}, dataset.String},
		{"yes/no are text", []string{"yes", "no"}, dataset.String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Values(tt.vals))
		})
	}
}

func TestDatasetUsesAllRows(t *testing.T) {
	ds, err := dataset.Load(dataset.NewSliceReader(
		[]string{"id", "code", "empty"},
		[][]string{
			{"1", "10", ""},
			{"2", "A7", ""},
		},
	))
	require.NoError(t, err)

	got := Dataset(ds)
	assert.Equal(t, Assignment{
		{Name: "id", Type: dataset.Numeric},
		{Name: "code", Type: dataset.String},
		{Name: "empty", Type: dataset.Unknown},
	}, got)
}

func TestSampleUsesOneRow(t *testing.T) {
	// The second column looks numeric in the sampled row even though later
	// rows would say otherwise; only the sample is consulted.
	got := Sample([]string{"name", "code", "note"}, []string{"alice", "10"})
	assert.Equal(t, Assignment{
		{Name: "name", Type: dataset.String},
		{Name: "code", Type: dataset.Numeric},
		{Name: "note", Type: dataset.Unknown},
	}, got)
}

func TestFirstAvailableFillsMissingCells(t *testing.T) {
	ds, err := dataset.Load(dataset.NewSliceReader(
		[]string{"price", "tag", "code", "blank"},
		[][]string{
			{"", "p", "7", ""},
			{"NA", "", "x9", ""},
			{"3", "r", "x8", "NaN"},
			{"oops", "4", "", ""},
		},
	))
	require.NoError(t, err)

	// Only the first present value of each column counts: price is numeric
	// from row 3 even though row 4 is text, and code stays numeric.
	assert.Equal(t, Assignment{
		{Name: "price", Type: dataset.Numeric},
		{Name: "tag", Type: dataset.String},
		{Name: "code", Type: dataset.Numeric},
		{Name: "blank", Type: dataset.Unknown},
	}, FirstAvailable(ds))
}

func TestFirstAvailableEmptyDataset(t *testing.T) {
	ds, err := dataset.New([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, Assignment{{Name: "a", Type: dataset.Unknown}}, FirstAvailable(ds))
}

func TestApply(t *testing.T) {
	ds, err := dataset.New([]string{"a", "b", "c"})
	require.NoError(t, err)

	Assignment{
		{Name: "a", Type: dataset.Numeric},
		{Name: "b", Type: dataset.String},
	}.Apply(ds)

	assert.Equal(t, dataset.Numeric, ds.Column("a").Type)
	assert.Equal(t, dataset.String, ds.Column("b").Type)
	assert.Equal(t, dataset.Unknown, ds.Column("c").Type)
}

func TestClassifyIsPure(t *testing.T) {
	ds, err := dataset.Load(dataset.NewSliceReader([]string{"x"}, [][]string{{"1"}}))
	require.NoError(t, err)

	_ = Dataset(ds)
	assert.Equal(t, dataset.Unknown, ds.Column("x").Type)
}
