/**
 * @description
 * Schema migration runner for the ledger database. Both binaries call
 * RunMigrations at startup so a fresh environment bootstraps itself and
 * an already-migrated database is a no-op.
 *
 * @dependencies
 * - github.com/golang-migrate/migrate/v4: Applies versioned SQL migrations.
 */

package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending up migrations found at migrationsPath
// against the database identified by databaseURL.
func RunMigrations(databaseURL, migrationsPath string) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
