// Package migrations embeds the vault's schema migrations so the CLI ships
// as a single binary with no adjacent migration files on disk.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/allisson/vaultcli/internal/errors"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Run drives golang-migrate's "up" against an already-open SQLite handle,
// sourcing the migration files from the embedded filesystem.
func Run(db *sql.DB) error {
	sourceDriver, err := iofs.New(sqliteFS, "sqlite")
	if err != nil {
		return errors.Wrap(errors.ErrStorage, fmt.Sprintf("load embedded migrations: %v", err))
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(errors.ErrStorage, fmt.Sprintf("init sqlite migration driver: %v", err))
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, fmt.Sprintf("init migrator: %v", err))
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(errors.ErrStorage, fmt.Sprintf("apply migrations: %v", err))
	}
	return nil
}
