package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS game (
	game_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	width       INTEGER NOT NULL DEFAULT 7,
	height      INTEGER NOT NULL DEFAULT 7,
	line_target INTEGER NOT NULL DEFAULT 4,
	host        TEXT    NOT NULL,
	enemy       TEXT,
	winner      TEXT,
	CHECK (width > 0 AND height > 0 AND line_target > 0),
	CHECK (line_target <= width AND line_target <= height)
);

CREATE TABLE IF NOT EXISTS game_tile (
	game_id INTEGER NOT NULL REFERENCES game (game_id),
	x       INTEGER NOT NULL,
	y       INTEGER NOT NULL,
	value   TEXT    NOT NULL,
	PRIMARY KEY (game_id, x, y),
	CHECK (x >= 0 AND y >= 0)
);
`

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("can't create database directory %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate"

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// sqlite allows a single writer, queue callers on one connection
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	_, err := that.Connection.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("can't create tables: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
