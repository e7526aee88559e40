package storage

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

type SqliteStorage struct {
	conn *sql.DB
	log  *slog.Logger
}

// NewSqliteStorage opens or creates the users database at path.
func NewSqliteStorage(path string, log *slog.Logger) (*SqliteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// one writer at a time; pragmas below are per connection
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err = conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	s := &SqliteStorage{
		conn: conn,
		log:  log,
	}
	if err = s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	log.Debug("sqlite storage opened", slog.String("path", path))
	return s, nil
}

func (s *SqliteStorage) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			daily_requests INTEGER NOT NULL DEFAULT 0,
			total_requests INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			last_active_at TEXT NOT NULL
		);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SqliteStorage) GetUser(ctx context.Context, userId int64) (*UserRecord, error) {
	query := `
		SELECT user_id, username, first_name, last_name, daily_requests, total_requests, created_at, last_active_at
		FROM users WHERE user_id = ?
	`
	var (
		user                    UserRecord
		createdAt, lastActiveAt string
	)
	err := s.conn.QueryRowContext(ctx, query, userId).Scan(
		&user.UserId,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.DailyRequests,
		&user.TotalRequests,
		&createdAt,
		&lastActiveAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user: %w", err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.LastActiveAt, err = parseTime(lastActiveAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SqliteStorage) UpsertUser(ctx context.Context, user *UserRecord) error {
	now := time.Now().UTC()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO users (user_id, username, first_name, last_name, daily_requests, total_requests, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			daily_requests = excluded.daily_requests,
			total_requests = excluded.total_requests,
			last_active_at = excluded.last_active_at
		RETURNING created_at
	`
	var stored string
	err := s.conn.QueryRowContext(ctx, query,
		user.UserId,
		user.Username,
		user.FirstName,
		user.LastName,
		user.DailyRequests,
		user.TotalRequests,
		formatTime(createdAt),
		formatTime(now),
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}

	if user.CreatedAt, err = parseTime(stored); err != nil {
		return err
	}
	user.LastActiveAt = now
	return nil
}

func (s *SqliteStorage) IncrementRequests(ctx context.Context, userId int64) error {
	query := `
		UPDATE users
		SET daily_requests = daily_requests + 1,
			total_requests = total_requests + 1,
			last_active_at = ?
		WHERE user_id = ?
	`
	res, err := s.conn.ExecContext(ctx, query, formatTime(time.Now().UTC()), userId)
	if err != nil {
		return fmt.Errorf("incrementing requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("incrementing requests: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SqliteStorage) ResetDaily(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `UPDATE users SET daily_requests = 0`)
	if err != nil {
		return 0, fmt.Errorf("resetting daily requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resetting daily requests: %w", err)
	}
	return n, nil
}

func (s *SqliteStorage) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
