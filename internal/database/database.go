// Package database provides database connection management and utilities.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Config holds database connection settings. The vault has exactly one
// writer and one connection: SQLite's file locking makes a connection pool
// counterproductive, so MaxOpenConnections is always pinned to 1.
type Config struct {
	// Path is the SQLite database file location on disk.
	Path string

	ConnMaxLifetime time.Duration
}

// Connect opens the vault's SQLite file, pragmas it for durability under a
// single-writer workload, and verifies connectivity.
func Connect(cfg Config) (*sql.DB, error) {
	if err := ensureFilePermissions(cfg.Path); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single on-disk SQLite file with WAL journaling tolerates exactly one
	// writer; extra pooled connections only serialize on the file lock.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ensureFilePermissions creates the vault file's parent directory (owner
// access only) if needed, and pins the database file itself to 0600 (owner
// read/write only). The sqlite3 driver has no create-mode option, so
// this pre-creates the file before sql.Open and re-asserts the mode on an
// already-existing file in case it was created under a looser umask by an
// older build.
func ensureFilePermissions(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to create database file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close database file: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set database file permissions: %w", err)
	}
	return nil
}
