package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the place directory database using sqlx
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	driverName := "pgx"
	if cfg.IsMemory() {
		driverName = "sqlite3"
	}

	db, err := sqlx.ConnectContext(ctx, driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.IsMemory() {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// Migrate applies every pending migration from migrationsDir, which holds
// one sub-directory per database type ("sqlite", "postgres").
func Migrate(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) error {
	var (
		m   *migrate.Migrate
		err error
	)

	if cfg.IsMemory() {
		// driver instance avoids DSN parsing issues with in-memory SQLite
		driver, derr := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if derr != nil {
			return fmt.Errorf("could not create sqlite driver: %w", derr)
		}
		m, err = migrate.NewWithDatabaseInstance("file://"+migrationsDir+"/sqlite", "sqlite3", driver)
	} else {
		m, err = migrate.New("file://"+migrationsDir+"/postgres", cfg.DSN())
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
