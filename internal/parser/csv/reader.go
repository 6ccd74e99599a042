// Package csv streams delimited text as rows.
//
// Reader pulls one record at a time from an io.ReadCloser, so a multi-GB
// sample is never buffered whole. A malformed row (wider than the header or
// not parseable) is an error unless SkipBadRows is set, in which case it
// goes to the onError callback and the row is skipped. An unreadable header
// or an I/O failure of the underlying stream is always fatal.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maulikam/data-analysis/internal/config"
)

// Options configures a Reader.
type Options struct {
	// Comma is the field delimiter. Zero selects ','.
	Comma rune
	// TrimSpace trims edge whitespace from every cell.
	TrimSpace bool
	// LazyQuotes tolerates bare quotes inside fields.
	LazyQuotes bool
	// HeaderMap renames source header names.
	HeaderMap map[string]string
	// FoldHeaders lowercases unmapped header names and turns spaces into
	// underscores.
	FoldHeaders bool
	// SkipBadRows reports malformed rows to onError and drops them instead
	// of failing Next.
	SkipBadRows bool
}

// OptionsFrom reads parser options from a config bag: comma, trim_space,
// lazy_quotes, header_map, fold_headers, bad_rows ("error" or "skip").
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:       o.Rune("comma", ','),
		TrimSpace:   o.Bool("trim_space", false),
		LazyQuotes:  o.Bool("lazy_quotes", false),
		HeaderMap:   o.StringMap("header_map"),
		FoldHeaders: o.Bool("fold_headers", false),
		SkipBadRows: o.String("bad_rows", config.BadRowsError) == config.BadRowsSkip,
	}
}

// Reader yields the rows of a delimited stream after its header.
type Reader struct {
	src     io.ReadCloser
	cr      *csv.Reader
	opt     Options
	header  []string
	onError func(line int, err error)

	line    int
	skipped int
}

// NewReader reads the header from src. onError, if non-nil, receives every
// row skipped under SkipBadRows. The Reader owns src and closes it on Close.
func NewReader(src io.ReadCloser, opt Options, onError func(line int, err error)) (*Reader, error) {
	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // width is checked against the header below

	r := &Reader{src: src, cr: cr, opt: opt, onError: onError}

	raw, err := r.read()
	if errors.Is(err, io.EOF) {
		_ = src.Close()
		return nil, fmt.Errorf("read csv header: empty input")
	}
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	r.header = normalizeHeader(raw, opt)
	return r, nil
}

func (r *Reader) read() ([]string, error) {
	r.line++
	return r.cr.Read()
}

// Header returns the normalized header.
func (r *Reader) Header() []string { return r.header }

// Skipped returns the number of rows dropped so far.
func (r *Reader) Skipped() int { return r.skipped }

// Next returns the next row, or io.EOF at the end of input. Rows shorter
// than the header are returned as is. Rows wider than the header and rows
// encoding/csv cannot parse fail with an error naming the line, or are
// skipped under SkipBadRows.
func (r *Reader) Next() ([]string, error) {
	for {
		rec, err := r.read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("csv line %d: %w", r.line, err)
			}
			if err := r.bad(fmt.Errorf("parse: %w", err)); err != nil {
				return nil, err
			}
			continue
		}
		if len(rec) > len(r.header) {
			if err := r.bad(fmt.Errorf("too many fields: expected %d, got %d", len(r.header), len(rec))); err != nil {
				return nil, err
			}
			continue
		}

		row := make([]string, len(rec))
		for i, v := range rec {
			if r.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}
		return row, nil
	}
}

// bad handles a malformed row: it returns the error, or under SkipBadRows
// reports it and returns nil so the row is dropped.
func (r *Reader) bad(err error) error {
	if !r.opt.SkipBadRows {
		return fmt.Errorf("csv line %d: %w", r.line, err)
	}
	r.skipped++
	if r.onError != nil {
		r.onError(r.line, err)
	}
	return nil
}

// Close closes the underlying stream.
func (r *Reader) Close() error { return r.src.Close() }
