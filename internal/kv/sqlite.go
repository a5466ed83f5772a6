package kv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLite is a KV backed by a single sqlite table. An advisory file lock
// next to the database enforces the single-writer-per-device assumption;
// a second process opening the same cache fails fast instead of racing.
type SQLite struct {
	conn *sql.DB
	lock *fileLock
}

// Open opens (or creates) the cache database at path and acquires the
// writer lock.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	lock := newFileLock(path + ".lock")
	if err := lock.acquire(500 * time.Millisecond); err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL keeps reads cheap while a sync pass is writing
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		lock.release()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &SQLite{conn: conn, lock: lock}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection (tests open :memory: with their own
// driver). No file lock is taken.
func New(conn *sql.DB) (*SQLite, error) {
	s := &SQLite{conn: conn}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("init kv schema: %w", err)
	}
	return nil
}

// Get implements KV.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements KV.
func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *SQLite) Delete(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (s *SQLite) Close() error {
	err := s.conn.Close()
	if s.lock != nil {
		s.lock.release()
	}
	return err
}
