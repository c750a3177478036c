package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrateUp applies every pending migration under dir in fsys, usually an
// embed.FS compiled into the binary. No pending migration is not an error.
func MigrateUp(dsn string, fsys fs.FS, dir string) error {
	return withMigrator(dsn, fsys, dir, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("postgres: migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the last steps migrations.
func MigrateDown(dsn string, fsys fs.FS, dir string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("postgres: rollback steps must be positive, got %d", steps)
	}
	return withMigrator(dsn, fsys, dir, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("postgres: migrate down %d: %w", steps, err)
		}
		return nil
	})
}

// SchemaVersion reports the applied migration version and whether the last
// migration left the schema dirty. Version 0 means nothing is applied.
func SchemaVersion(dsn string, fsys fs.FS, dir string) (version uint, dirty bool, err error) {
	err = withMigrator(dsn, fsys, dir, func(m *migrate.Migrate) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("postgres: read schema version: %w", err)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}

func withMigrator(dsn string, fsys fs.FS, dir string, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("postgres: open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("postgres: create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}
