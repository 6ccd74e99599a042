// Package json streams JSON records as rows.
//
// Three input shapes are accepted:
//   - a root array of objects: [ {...}, {...} ]
//   - an envelope object whose records_field holds that array:
//     { "records": [ ... ], "meta": {...} }
//   - a stream of objects (JSON Lines / NDJSON), including a single object
//
// The header is the key order of the first record. Later records are laid
// out along that header: absent keys and nulls become missing cells. A
// record that is not an object, or that carries a key the header lacks, is
// an error unless SkipBadRows is set; then the record is skipped or the key
// dropped, and onError is told. Nested values are kept as compact JSON text.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/maulikam/data-analysis/internal/config"
)

// Options configures a Reader.
type Options struct {
	// HeaderMap renames source keys.
	HeaderMap map[string]string
	// RecordsField names the envelope array. Empty means the input is a
	// root array or a stream of objects.
	RecordsField string
	// SkipBadRows skips non-object records and drops unknown keys instead
	// of failing Next.
	SkipBadRows bool
}

// OptionsFrom reads parser options from a config bag: header_map,
// records_field, bad_rows ("error" or "skip").
func OptionsFrom(o config.Options) Options {
	return Options{
		HeaderMap:    o.StringMap("header_map"),
		RecordsField: o.String("records_field", ""),
		SkipBadRows:  o.String("bad_rows", config.BadRowsError) == config.BadRowsSkip,
	}
}

// Reader yields one row per JSON record.
type Reader struct {
	src     io.ReadCloser
	dec     *json.Decoder
	opt     Options
	onError func(record int, err error)

	inArray bool // records are elements of an array, not top-level values
	done    bool

	header  []string
	index   map[string]int
	pending []string // first record, decoded while building the header

	record  int
	skipped int
}

// NewReader positions src at its first record and reads the header from
// it. onError, if non-nil, receives every record skipped or key dropped
// under SkipBadRows.
// The Reader owns src and closes it on Close.
func NewReader(src io.ReadCloser, opt Options, onError func(record int, err error)) (*Reader, error) {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	r := &Reader{src: src, dec: dec, opt: opt, onError: onError}

	fail := func(err error) (*Reader, error) {
		_ = src.Close()
		return nil, fmt.Errorf("read json header: %w", err)
	}

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fail(errors.New("empty input"))
	}
	if err != nil {
		return fail(err)
	}

	var first *record
	switch tok {
	case json.Delim('['):
		r.inArray = true
	case json.Delim('{'):
		if opt.RecordsField != "" {
			if err := r.enterEnvelope(); err != nil {
				return fail(err)
			}
			break
		}
		rec, err := r.objectBody()
		if err != nil {
			return fail(err)
		}
		first = rec
	default:
		return fail(fmt.Errorf("unexpected %v at start of input (want object or array)", tok))
	}

	if first == nil {
		rec, err := r.nextRecord()
		if errors.Is(err, io.EOF) {
			return fail(errors.New("no records"))
		}
		if err != nil {
			return fail(err)
		}
		first = rec
	}

	r.header = make([]string, len(first.keys))
	r.index = make(map[string]int, len(first.keys))
	for i, k := range first.keys {
		r.header[i] = k
		r.index[k] = i
	}
	if r.pending, err = r.layout(first); err != nil {
		return fail(err)
	}
	return r, nil
}

// enterEnvelope skips envelope keys up to RecordsField and consumes the
// array's opening bracket.
func (r *Reader) enterEnvelope() error {
	for r.dec.More() {
		key, err := r.key()
		if err != nil {
			return err
		}
		if key != r.opt.RecordsField {
			var skip json.RawMessage
			if err := r.dec.Decode(&skip); err != nil {
				return fmt.Errorf("skip %q: %w", key, err)
			}
			continue
		}
		tok, err := r.dec.Token()
		if err != nil {
			return err
		}
		if tok != json.Delim('[') {
			return fmt.Errorf("records_field %q is not an array", key)
		}
		r.inArray = true
		return nil
	}
	return fmt.Errorf("records_field %q not found", r.opt.RecordsField)
}

// Header returns the column names, renamed by HeaderMap.
func (r *Reader) Header() []string { return r.header }

// Skipped returns the number of records dropped so far.
func (r *Reader) Skipped() int { return r.skipped }

// Next returns the next row, or io.EOF after the last record. Syntax errors
// are fatal because the decoder cannot resynchronize after them.
func (r *Reader) Next() ([]string, error) {
	if r.pending != nil {
		row := r.pending
		r.pending = nil
		return row, nil
	}
	rec, err := r.nextRecord()
	if err != nil {
		return nil, err
	}
	return r.layout(rec)
}

// Close closes the underlying stream.
func (r *Reader) Close() error { return r.src.Close() }

// record is one decoded object with its keys in source order.
type record struct {
	keys  []string
	cells map[string]string
}

func (r *Reader) nextRecord() (*record, error) {
	for {
		if r.done {
			return nil, io.EOF
		}
		if r.inArray && !r.dec.More() {
			// Closing bracket; anything after the records is ignored.
			if _, err := r.dec.Token(); err != nil {
				return nil, fmt.Errorf("json record %d: %w", r.record+1, err)
			}
			r.done = true
			return nil, io.EOF
		}

		if r.inArray {
			var raw json.RawMessage
			if err := r.dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("json record %d: %w", r.record+1, err)
			}
			r.record++
			rec, err := decodeObject(raw)
			if err != nil {
				if err := r.bad(err); err != nil {
					return nil, err
				}
				continue
			}
			return r.rename(rec), nil
		}

		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			r.done = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("json record %d: %w", r.record+1, err)
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("json record %d: unexpected %v (want object)", r.record+1, tok)
		}
		rec, err := r.objectBody()
		if err != nil {
			return nil, fmt.Errorf("json record %d: %w", r.record, err)
		}
		return rec, nil
	}
}

// objectBody reads the members of an object whose '{' was consumed, and the
// closing '}'.
func (r *Reader) objectBody() (*record, error) {
	r.record++
	rec, err := readMembers(r.dec)
	if err != nil {
		return nil, err
	}
	return r.rename(rec), nil
}

func decodeObject(raw json.RawMessage) (*record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("array element is not an object")
	}
	return readMembers(dec)
}

func readMembers(dec *json.Decoder) (*record, error) {
	rec := &record{cells: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected %v (want key)", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if _, dup := rec.cells[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.cells[key] = cell(v)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, err
	}
	return rec, nil
}

func (r *Reader) key() (string, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected %v (want key)", tok)
	}
	return key, nil
}

// rename applies HeaderMap to the keys of rec.
func (r *Reader) rename(rec *record) *record {
	if len(r.opt.HeaderMap) == 0 {
		return rec
	}
	out := &record{keys: make([]string, len(rec.keys)), cells: make(map[string]string, len(rec.cells))}
	for i, k := range rec.keys {
		name := k
		if mapped, ok := r.opt.HeaderMap[k]; ok && mapped != "" {
			name = mapped
		}
		out.keys[i] = name
		out.cells[name] = rec.cells[k]
	}
	return out
}

// layout orders the cells of rec along the header.
func (r *Reader) layout(rec *record) ([]string, error) {
	row := make([]string, len(r.header))
	for _, k := range rec.keys {
		i, ok := r.index[k]
		if !ok {
			if !r.opt.SkipBadRows {
				return nil, fmt.Errorf("json record %d: key %q not in header", r.record, k)
			}
			if r.onError != nil {
				r.onError(r.record, fmt.Errorf("key %q not in header, dropped", k))
			}
			continue
		}
		row[i] = rec.cells[k]
	}
	return row, nil
}

// bad handles a record that is not an object: it returns the error, or
// under SkipBadRows reports it and returns nil so the record is skipped.
func (r *Reader) bad(err error) error {
	if !r.opt.SkipBadRows {
		return fmt.Errorf("json record %d: %w", r.record, err)
	}
	r.skipped++
	if r.onError != nil {
		r.onError(r.record, err)
	}
	return nil
}

// cell renders a decoded JSON value as a raw cell. null becomes "", which
// the dataset treats as missing.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
