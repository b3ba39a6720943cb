// Package migration applies the platform's schema to the repository database
// at startup. The DDL ships embedded in the binary, one directory per
// supported dialect, and is applied through golang-migrate with the dialect
// picked from the resolved connection.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// MigrationsTable tracks which schema versions have been applied.
const MigrationsTable = "fabric_schema_migrations"

// Migrator applies embedded migrations to one database connection.
type Migrator interface {
	// Up applies all pending migrations found under path in migrationFS.
	// An already current schema is not an error.
	Up(ctx context.Context, migrationFS fs.FS, path string) error
}

type migrator struct {
	conn   database.DBConnection
	dbType string
}

// NewMigrator creates a Migrator for the given connection. The connection's
// type selects the migrate driver.
func NewMigrator(conn database.DBConnection) Migrator {
	return &migrator{
		conn:   conn,
		dbType: conn.Type(),
	}
}

// databaseDriver builds the migrate/v4 driver for the connection's dialect.
func (m *migrator) databaseDriver(sqlDB *sql.DB) (migratedb.Driver, error) {
	switch m.dbType {
	case "postgres", "redshift":
		return postgres.WithInstance(sqlDB, &postgres.Config{
			MigrationsTable: MigrationsTable,
		})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{
			MigrationsTable: MigrationsTable,
		})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{
			MigrationsTable: MigrationsTable,
		})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *migrator) migrateInstance(migrationFS fs.FS, path string) (*migrate.Migrate, error) {
	sqlDB, err := m.conn.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, err := m.databaseDriver(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return instance, nil
}

func (m *migrator) Up(ctx context.Context, migrationFS fs.FS, path string) error {
	logger.Infof("Applying schema migrations (dialect: %s, path: %s, table: %s).", m.dbType, path, MigrationsTable)

	instance, err := m.migrateInstance(migrationFS, path)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := instance.Close(); srcErr != nil || dbErr != nil {
			logger.Warnf("Failed to close migrate instance cleanly: source=%v, database=%v", srcErr, dbErr)
		}
	}()

	if err := instance.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("schema migration failed (dialect: %s, path: %s): %w", m.dbType, path, err)
	}

	version, dirty, err := instance.Version()
	if err != nil && err != migrate.ErrNilVersion {
		logger.Warnf("Migrations applied but the version could not be read: %v", err)
		return nil
	}
	logger.Infof("Schema is current at version %d (dirty: %t).", version, dirty)
	return nil
}
