package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itbasis/go-clock"
	_ "modernc.org/sqlite"

	"aoc-leaderboard/cache"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite database connection. It is an alternative cache backend
// to the plain files of cache.FileStore and also keeps bot settings.
type DB struct {
	conn  *sql.DB
	clock clock.Clock
}

var _ cache.Store = (*DB)(nil)

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string, clk clock.Clock) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, clock: clk}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		modified_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Get returns the cached document stored under key.
func (db *DB) Get(ctx context.Context, key string) (*cache.Entry, error) {
	query := `SELECT data, modified_at FROM cache_entries WHERE key = ?`

	var data []byte
	var modifiedAt int64
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&data, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", cache.ErrIO, key, err)
	}

	return &cache.Entry{Data: data, ModTime: time.Unix(0, modifiedAt)}, nil
}

// Put inserts or replaces the document stored under key.
func (db *DB) Put(ctx context.Context, key string, data []byte) error {
	query := `
	INSERT INTO cache_entries (key, data, modified_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		data = excluded.data,
		modified_at = excluded.modified_at
	`
	_, err := db.conn.ExecContext(ctx, query, key, data, db.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("%w: store %s: %w", cache.ErrIO, key, err)
	}
	return nil
}

// GetSetting retrieves a setting value by key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`
	var value string
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores or updates a setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := db.conn.ExecContext(ctx, query, key, value)
	return err
}
