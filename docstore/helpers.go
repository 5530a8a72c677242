package docstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"busroot.app/internal/appconf"
)

//go:embed schema.sql
var ddl string

// ErrFileDBInTest is returned when a test environment asks for a file-backed database.
var ErrFileDBInTest = errors.New("test environment requires an in-memory database")

const memoryDB = ":memory:"

// createDB opens the SQLite database and applies the schema
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != memoryDB {
		return nil, fmt.Errorf("%w: %s", ErrFileDBInTest, config.DBPath)
	}

	db, err := sql.Open("sqlite", dataSourceName(config.DBPath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	configureConnectionPool(db, config.DBPath)

	ctx := context.Background()
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

// dataSourceName adds the connection pragmas for file databases. Writers wait
// on a locked database instead of failing, and transactions take the write
// lock up front so a read-then-write Update cannot deadlock another writer.
func dataSourceName(dbPath string) string {
	if dbPath == memoryDB {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// configureConnectionPool sizes the pool. Every connection to ":memory:" opens
// its own empty database, so the in-memory store is pinned to one connection.
func configureConnectionPool(db *sql.DB, dbPath string) {
	if dbPath == memoryDB {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}
