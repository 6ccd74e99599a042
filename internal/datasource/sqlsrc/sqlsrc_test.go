package sqlsrc

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maulikam/data-analysis/internal/dataset"
)

// seed creates a sqlite database file with a small people table.
func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE people (id INTEGER, name TEXT, score REAL)`,
		`INSERT INTO people VALUES (1, 'ann', 3.5), (2, 'bob', NULL), (3, NULL, 7)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestRowsReadsResultSet(t *testing.T) {
	src := New(Config{Driver: "sqlite", DSN: seed(t), Query: "SELECT id, name, score FROM people ORDER BY id"})
	require.NoError(t, src.Check(context.Background()))

	rr, err := src.Rows(context.Background())
	require.NoError(t, err)
	defer rr.Close()

	assert.Equal(t, []string{"id", "name", "score"}, rr.Header())

	var got [][]string
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, row)
	}
	assert.Equal(t, [][]string{
		{"1", "ann", "3.5"},
		{"2", "bob", ""},
		{"3", "", "7"},
	}, got)
}

func TestRowsFeedDataset(t *testing.T) {
	src := New(Config{Driver: "sqlite3", DSN: seed(t), Query: "SELECT id, score FROM people ORDER BY id"})
	rr, err := src.Rows(context.Background())
	require.NoError(t, err)
	defer rr.Close()

	var _ dataset.RowReader = rr
	ds, err := dataset.Load(rr)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, 1, ds.Column("score").Missing())
}

func TestBadQueryAndDriver(t *testing.T) {
	_, err := New(Config{Driver: "sqlite", DSN: seed(t), Query: "SELECT nope FROM missing"}).Rows(context.Background())
	assert.Error(t, err)

	_, err = New(Config{Driver: "oracle", DSN: "x", Query: "SELECT 1"}).Rows(context.Background())
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestDriverName(t *testing.T) {
	cases := map[string]string{
		"postgres":  "pgx",
		"pgx":       "pgx",
		"sqlserver": "sqlserver",
		"mssql":     "sqlserver",
		"mariadb":   "mysql",
		"SQLite":    "sqlite",
	}
	for in, want := range cases {
		got, err := driverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
