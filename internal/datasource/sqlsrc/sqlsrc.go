// Package sqlsrc reads a sample from the result set of a SQL query. The
// query's column names become the sample's header; every value is read as
// text and SQL NULL becomes a missing cell.
package sqlsrc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"  // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // registers "pgx"
	_ "github.com/microsoft/go-mssqldb" // registers "sqlserver"
	_ "modernc.org/sqlite"              // registers "sqlite"
)

// Config selects a database and a query.
type Config struct {
	// Driver is "postgres", "sqlserver", "mysql" or "sqlite".
	Driver string
	DSN    string
	Query  string
}

// driverName maps the configured driver onto its database/sql name.
func driverName(d string) (string, error) {
	switch strings.ToLower(d) {
	case "postgres", "postgresql", "pgx":
		return "pgx", nil
	case "sqlserver", "mssql":
		return "sqlserver", nil
	case "mysql", "mariadb":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("sqlsrc: unsupported driver %q", d)
}

// Source runs one query against one database.
type Source struct {
	cfg Config
}

// New returns a Source for cfg. No connection is made until Check or Open.
func New(cfg Config) *Source { return &Source{cfg: cfg} }

// String names the driver and the query.
func (s *Source) String() string {
	return fmt.Sprintf("%s query %q", s.cfg.Driver, s.cfg.Query)
}

func (s *Source) open() (*sql.DB, error) {
	name, err := driverName(s.cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, s.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlsrc: open %s: %w", s.cfg.Driver, err)
	}
	return db, nil
}

// Check connects and pings the database.
func (s *Source) Check(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlsrc: ping %s: %w", s.cfg.Driver, err)
	}
	return nil
}

// Rows runs the query and returns a reader over its result set. Close
// releases both the result set and the connection.
func (s *Source) Rows(ctx context.Context) (*Rows, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, s.cfg.Query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlsrc: query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, fmt.Errorf("sqlsrc: columns: %w", err)
	}

	r := &Rows{
		db:     db,
		rows:   rows,
		header: cols,
		cells:  make([]sql.NullString, len(cols)),
		dest:   make([]any, len(cols)),
	}
	for i := range r.cells {
		r.dest[i] = &r.cells[i]
	}
	return r, nil
}

// Rows adapts *sql.Rows to a row reader.
type Rows struct {
	db     *sql.DB
	rows   *sql.Rows
	header []string
	cells  []sql.NullString
	dest   []any
	n      int
}

// Header returns the result column names.
func (r *Rows) Header() []string { return r.header }

// Next returns the next row as text, or io.EOF after the last one.
func (r *Rows) Next() ([]string, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlsrc: row %d: %w", r.n+1, err)
		}
		return nil, io.EOF
	}
	if err := r.rows.Scan(r.dest...); err != nil {
		return nil, fmt.Errorf("sqlsrc: scan row %d: %w", r.n+1, err)
	}
	r.n++

	out := make([]string, len(r.cells))
	for i, c := range r.cells {
		if c.Valid {
			out[i] = c.String
		}
	}
	return out, nil
}

// Close releases the result set and the database handle.
func (r *Rows) Close() error {
	return errors.Join(r.rows.Close(), r.db.Close())
}
