// Package report renders the console output of a comparison run: the
// per-sample type report, the progress marker, and the final match list.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/maulikam/data-analysis/internal/classify"
	"github.com/maulikam/data-analysis/internal/compare"
)

// Format selects how the match list is written.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat accepts "text" (or empty) and "json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", string(Text):
		return Text, nil
	case string(JSON):
		return JSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Sample labels used throughout the console output.
const (
	SampleA = "Sample 1"
	SampleB = "Sample 2"
)

// Types writes the shape line and the column type block of one sample.
// rows < 0 means the sample is streamed and its row count is not yet known.
func Types(w io.Writer, label string, rows int, types classify.Assignment) error {
	n := "streamed"
	if rows >= 0 {
		n = strconv.Itoa(rows)
	}
	if _, err := fmt.Fprintf(w, "%s: %s rows, %d columns\n", label, n, len(types)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Column types for %s:\n", label); err != nil {
		return err
	}
	for _, ct := range types {
		if _, err := fmt.Fprintf(w, "%s: %s\n", ct.Name, ct.Type); err != nil {
			return err
		}
	}
	return nil
}

// Comparing writes the marker printed before chunks are dispatched.
func Comparing(w io.Writer) error {
	_, err := fmt.Fprintln(w, "Comparing columns...")
	return err
}

// Document is the JSON form of a run's result.
type Document struct {
	RunID        string          `json:"run_id"`
	Threshold    float64         `json:"threshold"`
	Chunks       int             `json:"chunks"`
	FailedChunks int             `json:"failed_chunks"`
	RowsA        int             `json:"rows_a"`
	RowsB        int             `json:"rows_b"`
	Matches      []compare.Match `json:"matches"`
}

// Matches writes the final list in the requested format.
func Matches(w io.Writer, f Format, doc Document) error {
	if f == JSON {
		if doc.Matches == nil {
			doc.Matches = []compare.Match{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if _, err := fmt.Fprintln(w, "Similar columns:"); err != nil {
		return err
	}
	for _, m := range doc.Matches {
		if _, err := fmt.Fprintln(w, Line(m)); err != nil {
			return err
		}
	}
	return nil
}

// Line renders one match, with the score to two decimals.
func Line(m compare.Match) string {
	return fmt.Sprintf("%s (%s) and %s (%s) - Similarity: %.2f", m.ColumnA, SampleA, m.ColumnB, SampleB, m.Score)
}
