package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// currencyVersion is the migration that adds expenses.currency.
const currencyVersion = 2

// RunMigrations brings the schema at dbPath up to the latest version and
// returns that version. Already migrated databases are left untouched.
func RunMigrations(dbPath string) (uint, error) {
	// Separate connection: the migrate driver closes it when done.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := adoptExistingSchema(migrateDB, m); err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// adoptExistingSchema marks a ledger created outside of migrate, or left
// dirty by an interrupted currency step, as already at currencyVersion when
// expenses carries the currency column. The remaining steps then run as usual.
func adoptExistingSchema(db *sql.DB, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case dirty && version == currencyVersion:
	default:
		return nil
	}

	var n int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('expenses') WHERE name = 'currency'`,
	).Scan(&n); err != nil {
		return fmt.Errorf("inspect expenses table: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err := m.Force(currencyVersion); err != nil {
		return fmt.Errorf("adopt existing schema: %w", err)
	}
	return nil
}
