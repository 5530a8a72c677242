// Package docstore is a path-addressed JSON document store on SQLite.
// Records live in named collections under a (key, subkey) pair.
package docstore

import (
	"database/sql"
	"log/slog"
)

// Client is the main entry point for the library
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient opens the database described by config and migrates it.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}
	if config.verbose {
		slog.Info("document store ready", slog.String("db_path", config.DBPath))
	}

	return &Client{
		config: config,
		DB:     db,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
