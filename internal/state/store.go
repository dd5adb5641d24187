// Package state persists session state, such as the last used review action,
// across runs.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS last_action (
	repo TEXT PRIMARY KEY,
	trailer TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type Store struct {
	conn *sql.DB
	path string
}

// DefaultPath returns $XDG_STATE_HOME/autosquash-review/state.db, falling
// back to ~/.local/state.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate state directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "autosquash-review", "state.db"), nil
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}
	slog.Debug("state store opened", slog.String("path", path))
	return &Store{conn: conn, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

// LastUsedAction returns the trailer of the review action applied last in
// repo. ok is false when none was recorded.
func (s *Store) LastUsedAction(ctx context.Context, repo string) (trailer string, ok bool, err error) {
	row := s.conn.QueryRowContext(ctx, `SELECT trailer FROM last_action WHERE repo = ?`, repo)
	if err := row.Scan(&trailer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read last used action: %w", err)
	}
	return trailer, true, nil
}

func (s *Store) SetLastUsedAction(ctx context.Context, repo, trailer string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO last_action (repo, trailer, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(repo) DO UPDATE SET trailer = excluded.trailer, updated_at = excluded.updated_at`,
		repo, trailer, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record last used action: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
