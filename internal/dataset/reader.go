package dataset

import (
	"errors"
	"fmt"
	"io"
)

// RowReader streams the rows of a tabular source. Header is available
// before the first call to Next. Next returns io.EOF after the last row.
type RowReader interface {
	Header() []string
	Next() ([]string, error)
	Close() error
}

// Load materializes every row of rr into a Dataset. rr is not closed.
func Load(rr RowReader) (*Dataset, error) {
	ds, err := New(rr.Header())
	if err != nil {
		return nil, err
	}
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return ds, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load row %d: %w", ds.Rows()+1, err)
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, err
		}
	}
}

// SliceReader is a RowReader over rows already in memory.
type SliceReader struct {
	header []string
	rows   [][]string
	pos    int
	closed bool
}

// NewSliceReader returns a RowReader yielding rows in order.
func NewSliceReader(header []string, rows [][]string) *SliceReader {
	return &SliceReader{header: header, rows: rows}
}

func (s *SliceReader) Header() []string { return s.header }

func (s *SliceReader) Next() ([]string, error) {
	if s.closed || s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *SliceReader) Close() error {
	s.closed = true
	return nil
}
