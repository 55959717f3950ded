package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/kubev2v/relcore/pkg/dialect"
)

// Drivers maps the driver names accepted by NewDB to the dialect they speak.
var Drivers = map[string]string{
	"duckdb":    "duckdb",
	"pgx":       "postgres",
	"postgres":  "postgres",
	"sqlserver": "sqlserver",
}

// NewDB opens a database with one of the registered drivers. For DuckDB the dsn is a
// file path; use ":memory:" for an in-memory database (useful for testing).
func NewDB(driver, dsn string) (*sql.DB, error) {
	switch strings.ToLower(driver) {
	case "duckdb":
		return newDuckDB(dsn)
	case "pgx", "postgres", "sqlserver":
		conn, err := sql.Open(strings.ToLower(driver), dsn)
		if err != nil {
			return nil, err
		}
		if err := conn.Ping(); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
	return nil, fmt.Errorf("unknown driver %q", driver)
}

// DialectFor returns the dialect of a driver accepted by NewDB.
func DialectFor(driver string) (dialect.Dialect, error) {
	name, ok := Drivers[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
	return dialect.Lookup(name)
}

func newDuckDB(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	// DuckDB is single-writer; a single connection prevents idle pool
	// connections from blocking WAL checkpointing.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Keep extensions next to the database instead of ~/.duckdb, which may be read-only.
	if path != ":memory:" {
		extDir := filepath.Dir(path)
		if _, err := conn.Exec(fmt.Sprintf("SET extension_directory = '%s'", extDir)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting extension directory: %w", err)
		}
	}

	return conn, nil
}
