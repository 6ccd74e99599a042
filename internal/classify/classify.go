// Package classify tags columns with the closed String/Numeric/Unknown type.
//
// Dataset B is classified from its full data; dataset A is classified from
// a single sampled row because it is only ever streamed. The entry points
// (Dataset for B, FirstAvailable and Sample for A) keep that asymmetry
// explicit. Classification
// is pure: it returns an Assignment and never mutates its input.
package classify

import (
	"strings"

	"github.com/maulikam/data-analysis/internal/dataset"
)

// ColumnType pairs a column name with its inferred type.
type ColumnType struct {
	Name string       `json:"name"`
	Type dataset.Type `json:"type"`
}

// Assignment is the ordered result of classifying a dataset.
type Assignment []ColumnType

// Lookup returns the type assigned to name, or Unknown.
func (a Assignment) Lookup(name string) dataset.Type {
	for _, ct := range a {
		if ct.Name == name {
			return ct.Type
		}
	}
	return dataset.Unknown
}

// Apply copies the assigned types onto the matching columns of ds.
// Columns without an assignment become Unknown.
func (a Assignment) Apply(ds *dataset.Dataset) {
	for _, col := range ds.Columns {
		col.Type = a.Lookup(col.Name)
	}
}

// Dataset classifies every column of ds from all of its values.
func Dataset(ds *dataset.Dataset) Assignment {
	out := make(Assignment, len(ds.Columns))
	for i, col := range ds.Columns {
		out[i] = ColumnType{Name: col.Name, Type: Values(col.Present())}
	}
	return out
}

// Sample classifies each header column from the single representative row.
// Cells missing from a short row count as missing values.
func Sample(header, row []string) Assignment {
	out := make(Assignment, len(header))
	for i, name := range header {
		var vals []string
		if i < len(row) && !dataset.IsMissing(row[i]) {
			vals = []string{row[i]}
		}
		out[i] = ColumnType{Name: name, Type: Values(vals)}
	}
	return out
}

// FirstAvailable classifies each column of ds from one representative row:
// the first row, where each missing cell is replaced by the first present
// value further down the same column. A column with no present value in ds
// is Unknown.
func FirstAvailable(ds *dataset.Dataset) Assignment {
	row := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		for j := 0; j < col.Len(); j++ {
			if v, ok := col.Value(j); ok {
				row[i] = v
				break
			}
		}
	}
	return Sample(ds.Names(), row)
}

// Values infers a type from non-missing raw values.
// Heuristic: no values → Unknown; all numbers → Numeric; all booleans →
// Numeric; anything else, including a mix of numbers and booleans → String.
func Values(vals []string) dataset.Type {
	nonEmpty := nonEmptyTrimmed(vals)
	if len(nonEmpty) == 0 {
		return dataset.Unknown
	}
	if allMatch(nonEmpty, isNumber) || allMatch(nonEmpty, isBool) {
		return dataset.Numeric
	}
	return dataset.String
}

// nonEmptyTrimmed returns the trimmed values that are not NA markers.
func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if !dataset.IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// allMatch reports whether every value satisfies fn.
func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isBool(s string) bool {
	_, ok := dataset.ParseBool(s)
	return ok
}

// isNumber accepts signed integers, decimals, and scientific notation.
func isNumber(s string) bool {
	if isBool(s) {
		return false
	}
	_, ok := dataset.ParseNumber(s)
	return ok
}
