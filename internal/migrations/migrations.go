// Package migrations embeds the Factotum schema and wraps golang-migrate for
// the migrate binary and the operator CLI.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed sql/*.sql
var files embed.FS

// Migrator applies the embedded migrations to a single database.
type Migrator struct {
	m *migrate.Migrate
}

// New opens a migrator for the given postgres:// URL.
func New(dsn string) (*Migrator, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (g *Migrator) Up() error {
	return ignoreNoChange(g.m.Up())
}

// Down reverts every applied migration.
func (g *Migrator) Down() error {
	return ignoreNoChange(g.m.Down())
}

// Steps applies n migrations forward, or reverts -n when n is negative.
func (g *Migrator) Steps(n int) error {
	return ignoreNoChange(g.m.Steps(n))
}

// Version reports the applied version and whether the last migration failed midway.
// A database with no applied migrations reports version 0.
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force sets the recorded version without running migrations.
func (g *Migrator) Force(version int) error {
	return g.m.Force(version)
}

// Close releases the source and database handles.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Files lists the embedded migration file names.
func Files() ([]string, error) {
	entries, err := files.ReadDir("sql")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
