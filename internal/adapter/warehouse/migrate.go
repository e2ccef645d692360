package warehouse

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

func migrationDriver(driver string, db *sql.DB) (database.Driver, error) {
	switch driver {
	case "sqlite":
		return migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case "postgres":
		return migratepostgres.WithInstance(db, &migratepostgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database driver for migration: %s", driver)
	}
}

// Migrate applies the embedded star-schema migrations for driver.
//
// The migrate instance is deliberately not closed: closing it closes db.
func Migrate(driver string, db *sql.DB, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("open migrations for %s: %w", driver, err)
	}

	drv, err := migrationDriver(driver, db)
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, drv)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	logger.Info("warehouse schema ready", "driver", driver, "version", version)
	return nil
}
