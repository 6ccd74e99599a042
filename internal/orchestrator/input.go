package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/datasource"
	"github.com/maulikam/data-analysis/internal/datasource/file"
	"github.com/maulikam/data-analysis/internal/datasource/httpds"
	"github.com/maulikam/data-analysis/internal/datasource/s3src"
	"github.com/maulikam/data-analysis/internal/datasource/sqlsrc"
	"github.com/maulikam/data-analysis/internal/dataset"
	"github.com/maulikam/data-analysis/internal/parser/csv"
	jsonparser "github.com/maulikam/data-analysis/internal/parser/json"
)

// input is one sample: a way to confirm it exists and a way to stream its
// rows. Byte sources go through the delimited parser; SQL sources yield rows
// directly.
type input interface {
	datasource.Checker
	fmt.Stringer
	Rows(ctx context.Context) (dataset.RowReader, error)
}

// byteInput parses a raw byte stream.
type byteInput struct {
	src interface {
		datasource.Source
		datasource.Checker
		fmt.Stringer
	}
	parser config.Parser
	logf   func(format string, args ...any)
}

func (b *byteInput) Check(ctx context.Context) error { return b.src.Check(ctx) }
func (b *byteInput) String() string                  { return b.src.String() }

func (b *byteInput) Rows(ctx context.Context) (dataset.RowReader, error) {
	rc, err := b.src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.src, err)
	}
	name := b.src.String()
	onError := func(n int, err error) {
		b.logf("load: %s record %d skipped: %v", name, n, err)
	}

	var rr dataset.RowReader
	switch b.parser.Kind {
	case "json":
		rr, err = jsonparser.NewReader(rc, jsonparser.OptionsFrom(b.parser.Options), onError)
	default:
		rr, err = csv.NewReader(rc, csv.OptionsFrom(b.parser.Options), onError)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rr, nil
}

// sqlInput adapts a query result.
type sqlInput struct{ src *sqlsrc.Source }

func (s *sqlInput) Check(ctx context.Context) error { return s.src.Check(ctx) }
func (s *sqlInput) String() string                  { return s.src.String() }

func (s *sqlInput) Rows(ctx context.Context) (dataset.RowReader, error) {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// newInput builds the sample described by src. Parser options apply to byte
// sources only.
func newInput(src config.Source, p config.Parser, logf func(string, ...any)) (input, error) {
	if logf == nil {
		logf = log.Printf
	}
	wrap := func(s interface {
		datasource.Source
		datasource.Checker
		fmt.Stringer
	}) (input, error) {
		switch p.Kind {
		case "", "csv", "json":
		default:
			return nil, fmt.Errorf("unsupported parser.kind=%s", p.Kind)
		}
		return &byteInput{src: s, parser: p, logf: logf}, nil
	}

	switch src.Kind {
	case "", "file":
		return wrap(file.NewLocal(src.Path))
	case "http":
		hdr := make(http.Header, len(src.Headers))
		for k, v := range src.Headers {
			hdr.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:    time.Duration(src.TimeoutSeconds) * time.Second,
			MaxRetries: 3,
			Headers:    hdr,
		})
		return wrap(httpds.NewSource(client, src.URL))
	case "s3":
		return wrap(s3src.New(s3src.Config{
			Bucket:          src.S3.Bucket,
			Key:             src.S3.Key,
			Region:          src.S3.Region,
			Endpoint:        src.S3.Endpoint,
			AccessKeyID:     src.S3.AccessKeyID,
			SecretAccessKey: src.S3.SecretAccessKey,
			UsePathStyle:    src.S3.UsePathStyle,
		}))
	case "sql":
		return &sqlInput{src: sqlsrc.New(sqlsrc.Config{
			Driver: src.SQL.Driver,
			DSN:    src.SQL.DSN,
			Query:  src.SQL.Query,
		})}, nil
	}
	return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
}

// closeQuietly closes c and logs a failure.
func closeQuietly(c io.Closer, what string, logf func(string, ...any)) {
	if err := c.Close(); err != nil {
		logf("load: close %s: %v", what, err)
	}
}
