package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"

	"github.com/yourorg/wanderplan/internal/config"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// Open connects to the database selected by cfg.Driver and wraps it in a
// dbx query builder.
func Open(cfg config.DBConfig) (*dbx.DB, error) {
	switch cfg.Driver {
	case DialectSQLite:
		sqlDB, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return dbx.NewFromDB(sqlDB, DialectSQLite), nil
	case DialectMySQL, "":
		sqlDB, err := Connect(cfg)
		if err != nil {
			return nil, err
		}
		return dbx.NewFromDB(sqlDB, DialectMySQL), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// Connect returns a MariaDB/MySQL connection.
func Connect(cfg config.DBConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name)
	return sql.Open("mysql", dsn)
}

// OpenSQLite opens (creating if needed) a SQLite file. ":memory:" is accepted.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer; an in-memory database also lives on one connection only
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return sqlDB, nil
}

// EnsureSchema creates required tables if not exist.
// Dates are stored as YYYY-MM-DD text and timestamps as unix milliseconds so
// the same statements run on MySQL and SQLite.
func EnsureSchema(db *dbx.DB, skip bool) error {
	if skip {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA)")
		return nil
	}
	suffix := ""
	if db.DriverName() == DialectMySQL {
		suffix = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			title VARCHAR(200) NOT NULL,
			destination VARCHAR(255) NULL,
			description TEXT NULL,
			start_date VARCHAR(10) NOT NULL,
			end_date VARCHAR(10) NOT NULL,
			status VARCHAR(16) NOT NULL,
			budget DOUBLE NULL,
			currency VARCHAR(3) NULL,
			deleted_at BIGINT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trip_items (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			trip_id VARCHAR(36) NOT NULL,
			item_type VARCHAR(16) NOT NULL,
			source_id VARCHAR(255) NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NULL,
			start_at BIGINT NULL,
			end_at BIGINT NULL,
			location_name VARCHAR(255) NULL,
			address VARCHAR(500) NULL,
			latitude DOUBLE NULL,
			longitude DOUBLE NULL,
			metadata TEXT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range tables {
		if _, err := db.NewQuery(stmt + suffix).Execute(); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX idx_trips_owner ON trips(owner_id, deleted_at)`,
		`CREATE INDEX idx_trip_items_trip ON trip_items(trip_id, start_at)`,
	}
	for _, stmt := range indexes {
		if _, err := db.NewQuery(stmt).Execute(); err != nil {
			errMsg := strings.ToLower(err.Error())
			if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "already exists") {
				// index already exists, nothing to do
			} else if strings.Contains(errMsg, "permission denied") {
				log.Printf("EnsureSchema: unable to create index (permission denied): %v", err)
			} else {
				return err
			}
		}
	}

	return nil
}
