// Package dbtest connects integration tests to a disposable PostgreSQL
// database named by FACTOTUM_TEST_DSN. Tests that call Open are skipped when
// the variable is unset.
package dbtest

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/factotum/internal/migrations"
)

// EnvDSN names the postgres:// URL of the test database.
const EnvDSN = "FACTOTUM_TEST_DSN"

// lockKey serializes test packages that share the database.
const lockKey = 0x666163746f74756d

const truncateQ = `
	TRUNCATE audit_log, product_to_puc, classification_rules, extracted_texts,
		qa_groups, extraction_scripts, products, pucs, documents
	RESTART IDENTITY CASCADE`

// Open migrates the test database to the latest schema, empties every table and
// returns a connection pool closed when t finishes. The database is held for
// the duration of t so parallel test binaries do not see each other's rows.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvDSN, err)
	}
	db := stdlib.OpenDB(*cfg)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", int64(lockKey)); err != nil {
		t.Fatalf("lock test database: %v", err)
	}
	t.Cleanup(func() {
		conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", int64(lockKey))
		conn.Close()
	})

	m, err := migrations.New(dsn)
	if err != nil {
		t.Fatalf("open migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		m.Close()
		t.Fatalf("migrate up: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close migrator: %v", err)
	}

	if _, err := db.ExecContext(ctx, truncateQ); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return db
}

// Logger discards everything written to it.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
