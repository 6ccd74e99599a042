// Package datasource defines the byte-stream abstraction shared by the file,
// HTTP and S3 sources.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable stream of raw bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Checker is implemented by sources that can confirm the input exists
// without reading it. A missing input is reported with an error that
// matches fs.ErrNotExist under errors.Is.
type Checker interface {
	Check(ctx context.Context) error
}
