package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maulikam/data-analysis/internal/bitmap"
)

// Column is a named, typed sequence of raw cell values. Missing cells are
// stored as "" and flagged in the null mask.
type Column struct {
	Name string
	Type Type

	values []string
	nulls  bitmap.Bitmap
}

// NewColumn returns an empty column of Unknown type.
func NewColumn(name string) *Column {
	return &Column{Name: name}
}

// Append adds one raw cell. Cells matching an NA marker become missing.
func (c *Column) Append(cell string) {
	if IsMissing(cell) {
		c.AppendMissing()
		return
	}
	c.values = append(c.values, cell)
}

// AppendMissing adds a missing cell.
func (c *Column) AppendMissing() {
	c.nulls.Add(len(c.values))
	c.values = append(c.values, "")
}

// Len returns the number of cells, missing included.
func (c *Column) Len() int { return len(c.values) }

// Missing returns the number of missing cells.
func (c *Column) Missing() int { return c.nulls.Count() }

// Value returns the i-th cell and whether it is present.
func (c *Column) Value(i int) (string, bool) {
	if c.nulls.Has(i) {
		return "", false
	}
	return c.values[i], true
}

// Present returns the non-missing cells in row order.
func (c *Column) Present() []string {
	out := make([]string, 0, len(c.values))
	for i, v := range c.values {
		if !c.nulls.Has(i) {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns every cell as text with missing cells replaced by "".
// The returned slice must not be modified.
func (c *Column) Strings() []string {
	return c.values
}

// Floats returns every cell as a number with missing cells replaced by 0.
// Booleans map to 1 and 0. Any other unparsable cell is an error that names
// the offending row.
func (c *Column) Floats() ([]float64, error) {
	out := make([]float64, len(c.values))
	for i, v := range c.values {
		if c.nulls.Has(i) {
			continue
		}
		f, ok := ParseNumber(v)
		if !ok {
			return nil, fmt.Errorf("column %q row %d: %q is not numeric", c.Name, i, v)
		}
		out[i] = f
	}
	return out, nil
}

// ParseNumber parses a numeric or boolean cell.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if b, ok := ParseBool(s); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool accepts the boolean spellings the CSV loader recognizes:
// true/false in lower, upper, or title case.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	return false, false
}
