// Package dataset holds the in-memory model shared by the comparison engine:
// typed columns with a missing-value mask, datasets of such columns, and
// row-bounded chunks streamed from a RowReader.
package dataset

import (
	"fmt"
	"strings"
)

// Type is the closed classification assigned to a column before any
// comparison is attempted.
type Type int

const (
	Unknown Type = iota
	String
	Numeric
)

// String returns the lowercase tag used in reports and config files.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// ParseType converts a tag produced by Type.String back into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return String, nil
	case "numeric":
		return Numeric, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("dataset: unknown column type %q", s)
}

// MarshalText lets Type render as its tag in JSON and YAML output.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
