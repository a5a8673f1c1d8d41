package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const kvSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements KV on a single SQLite table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(kvSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load returns the payload stored under key.
func (s *SQLite) Load(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.conn.QueryRow(`SELECT payload FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: load %s: %w", key, err)
	}
	return payload, true, nil
}

// Save upserts the payload for key within a transaction.
func (s *SQLite) Save(key string, data []byte) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO kv (key, payload, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload    = excluded.payload,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, key, data, digest(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", key, err)
	}
	return tx.Commit()
}

// Delete removes key.
func (s *SQLite) Delete(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Checksum returns the stored checksum for key, or empty string if absent.
func (s *SQLite) Checksum(key string) (string, error) {
	var cs string
	err := s.conn.QueryRow(`SELECT checksum FROM kv WHERE key = ?`, key).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: checksum %s: %w", key, err)
	}
	return cs, nil
}

var _ KV = (*SQLite)(nil)
