package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	data        TEXT NOT NULL,
	last_active INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);
`

// SQLiteStore persists sessions across process restarts. Same lazy-expiry
// contract as the memory store: an expired row is deleted when it is read,
// never by a sweeper.
type SQLiteStore struct {
	db     *sql.DB
	maxAge time.Duration
}

// NewSQLiteStore opens (creating if needed) a session database at path.
// maxAge <= 0 selects the default.
func NewSQLiteStore(path string, maxAge time.Duration) (*SQLiteStore, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}

	return &SQLiteStore{db: db, maxAge: maxAge}, nil
}

// Get returns the session for id, or (nil, nil) when absent or expired.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var data string
	var lastActive int64

	err := s.db.QueryRowContext(ctx,
		`SELECT data, last_active FROM sessions WHERE id = ?`, id,
	).Scan(&data, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if time.Since(time.UnixMilli(lastActive)) > s.maxAge {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Set upserts the session and refreshes its activity timestamp.
func (s *SQLiteStore) Set(ctx context.Context, id string, sess *Session) error {
	sess.LastActiveAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, last_active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, last_active = excluded.last_active`,
		id, string(data), sess.LastActiveAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the session if present.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
