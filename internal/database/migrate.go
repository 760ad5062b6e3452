package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies the embedded migrations. Down rolls back a single step.
func Migrate(db *sql.DB, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("unknown migration direction %q", dir)
	}

	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Steps(-1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations %s: %w", dir, err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		slog.Info("migrations applied", "direction", dir, "version", version, "dirty", dirty)
	}

	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := pgx.WithInstance(db, &pgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("create pgx driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, nil
}
