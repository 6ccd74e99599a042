package dataset

import (
	"errors"
	"fmt"
	"io"
)

// DefaultChunkBytes bounds the row data held by one chunk.
const DefaultChunkBytes = 10 << 20

// Chunk is a contiguous row range of a streamed dataset. It keeps every
// column name of the source but only the values of its own rows.
type Chunk struct {
	Index  int // submission order, starting at 0
	Offset int // row number of the first row in the source, starting at 0
	Data   *Dataset
}

// Chunker cuts a RowReader into chunks of at most maxBytes of row data.
// A chunk always holds at least one row, so a single oversized row still
// makes progress.
type Chunker struct {
	rr       RowReader
	maxBytes int64

	peeked  []string
	hasPeek bool
	held    *Chunk
	next    int
	rows    int
	done    bool
}

// NewChunker wraps rr. maxBytes <= 0 selects DefaultChunkBytes.
func NewChunker(rr RowReader, maxBytes int64) *Chunker {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkBytes
	}
	return &Chunker{rr: rr, maxBytes: maxBytes}
}

// Header returns the source header.
func (c *Chunker) Header() []string { return c.rr.Header() }

// Peek returns the first unread row without consuming it. It returns
// io.EOF when the source has no more rows.
func (c *Chunker) Peek() ([]string, error) {
	if c.hasPeek {
		return c.peeked, nil
	}
	row, err := c.rr.Next()
	if err != nil {
		return nil, err
	}
	c.peeked, c.hasPeek = row, true
	return row, nil
}

// Rows returns the number of rows cut into chunks so far, including a chunk
// held by PeekChunk.
func (c *Chunker) Rows() int { return c.rows }

// PeekChunk returns the next chunk without consuming it; the following Next
// returns the same chunk. It returns io.EOF when the source is exhausted.
func (c *Chunker) PeekChunk() (*Chunk, error) {
	if c.held != nil {
		return c.held, nil
	}
	chunk, err := c.cut()
	if err != nil {
		return nil, err
	}
	c.held = chunk
	return chunk, nil
}

// Next returns the next chunk, or io.EOF when the source is exhausted.
func (c *Chunker) Next() (*Chunk, error) {
	if c.held != nil {
		chunk := c.held
		c.held = nil
		return chunk, nil
	}
	return c.cut()
}

func (c *Chunker) cut() (*Chunk, error) {
	if c.done {
		return nil, io.EOF
	}
	ds, err := New(c.rr.Header())
	if err != nil {
		return nil, err
	}
	chunk := &Chunk{Index: c.next, Offset: c.rows, Data: ds}

	var size int64
	for size < c.maxBytes {
		row, err := c.Peek()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		c.hasPeek = false
		if err := ds.AppendRow(row); err != nil {
			return nil, fmt.Errorf("chunk %d row %d: %w", chunk.Index, c.rows, err)
		}
		c.rows++
		size += RowBytes(row)
	}

	if ds.Rows() == 0 {
		return nil, io.EOF
	}
	c.next++
	return chunk, nil
}

// RowBytes approximates the encoded size of a row: its cells plus one
// separator per cell.
func RowBytes(row []string) int64 {
	n := int64(len(row))
	for _, cell := range row {
		n += int64(len(cell))
	}
	return n
}
