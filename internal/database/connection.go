/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/constants"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

//go:embed schema.sqlite.sql
var sqliteSchema string

//go:embed schema.postgres.sql
var postgresSchema string

// DB holds the database connection
type DB struct {
	*sqlx.DB
	driver string // Database driver name (sqlite3, pgx)
}

// Driver returns the underlying database driver name
func (db *DB) Driver() string {
	return db.driver
}

// NewConnection creates a new database connection using configuration
func NewConnection(cfg *config.StorageConfig) (*DB, error) {
	var db *sqlx.DB
	var err error
	var driver string

	switch cfg.Type {
	case "sqlite":
		driver = "sqlite3"
		dir := filepath.Dir(cfg.SQLite.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		// busy_timeout keeps concurrent admin writes from failing fast
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.SQLite.Path)
		db, err = sqlx.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	case "postgres":
		driver = "pgx"
		pg := cfg.Postgres
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pg.Host, pg.Port, pg.User, pg.Password, pg.Database, pg.SSLMode,
		)
		db, err = sqlx.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedDatabase, cfg.Type)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Wrap adapts an already open sqlx handle, mainly for tests
func Wrap(db *sqlx.DB) *DB {
	return &DB{DB: db, driver: db.DriverName()}
}

// InitSchema creates the options table for the current driver
func (db *DB) InitSchema() error {
	var schemaSQL string
	switch db.driver {
	case "sqlite3":
		schemaSQL = sqliteSchema
	case "pgx":
		schemaSQL = postgresSchema
	default:
		return fmt.Errorf("%w for schema initialization: %s", constants.ErrUnsupportedDatabase, db.driver)
	}

	// pgx does not accept several statements in one Exec
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || isCommentOnly(stmt) {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

// ServerVersion returns the version string of the database server
func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	var query string
	switch db.driver {
	case "sqlite3":
		query = "SELECT sqlite_version()"
	case "pgx":
		query = "SHOW server_version"
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnsupportedDatabase, db.driver)
	}

	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
