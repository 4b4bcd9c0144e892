// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so that reads can run
// either standalone or inside a write transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the configured database and verifies the connection.
func Open(dbType, url string) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dbType {
	case TypePostgres:
		conn, err = sql.Open("postgres", url)
	case TypeSQLite, "":
		conn, err = sql.Open("sqlite", sqliteDSN(url))
		if err == nil {
			// one writer at a time; WAL still lets the pool hand out the
			// connection between statements
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// ReadSnapshot returns the options for a read transaction whose statements
// must all see the same committed state. SQLite runs on a single
// connection, so a plain transaction already excludes writers there.
func ReadSnapshot(conn *sql.DB) *sql.TxOptions {
	if _, ok := conn.Driver().(*pq.Driver); ok {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// sqliteDSN turns a path or file: URL into a DSN with foreign keys, WAL and
// a busy timeout enabled.
func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(on)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
}

// IsUniqueViolation reports whether err is a unique/primary key violation on
// either driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
