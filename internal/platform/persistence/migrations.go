package persistence

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the transactions and outbox tables up to the latest schema.
// migrationsPath is a directory such as migrations/postgres; it is read through the file source.
func RunMigrations(databaseURL string, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("POSTGRES_MIGRATIONS_PATH is empty")
	}
	if databaseURL == "" {
		return errors.New("POSTGRES_URL is empty")
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open ledger migrations at %s: %w", migrationsPath, err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read ledger schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("ledger schema is dirty at version %d, fix it with migrate force", version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	return nil
}
