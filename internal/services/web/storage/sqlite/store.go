// Package sqlite provides the web session persistence adapter backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kscalelabs/storefront/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/kscalelabs/storefront/internal/services/web/storage"
	"github.com/kscalelabs/storefront/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for web sessions.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ webstorage.SessionStore = (*Store)(nil)

// Open opens and migrates a web session SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSession inserts or replaces a session and prunes expired rows.
// CreatedAt is kept when the session already exists.
func (s *Store) SaveSession(ctx context.Context, session webstorage.Session) error {
	if err := s.ready(); err != nil {
		return err
	}
	session.ID = strings.TrimSpace(session.ID)
	session.UserID = strings.TrimSpace(session.UserID)
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if session.UserID == "" {
		return fmt.Errorf("session user id is required")
	}
	if strings.TrimSpace(session.AccessToken) == "" {
		return fmt.Errorf("session access token is required")
	}
	now := s.now().UTC()
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM web_sessions WHERE expires_at <= ?`, toMillis(now)); err != nil {
		return fmt.Errorf("prune expired sessions: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO web_sessions (session_id, user_id, access_token, cached_user_json, cached_user_at, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			cached_user_json = excluded.cached_user_json,
			cached_user_at = excluded.cached_user_at,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		session.ID,
		session.UserID,
		session.AccessToken,
		nullableBytes(session.CachedUser),
		toMillis(session.CachedUserAt),
		toMillis(createdAt),
		toMillis(now),
		toMillis(session.ExpiresAt),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save session: %w", err)
	}
	return nil
}

// LoadSession loads a live session by id.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (webstorage.Session, bool, error) {
	if err := s.ready(); err != nil {
		return webstorage.Session{}, false, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return webstorage.Session{}, false, nil
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, user_id, access_token, cached_user_json, cached_user_at, created_at, expires_at
		 FROM web_sessions
		 WHERE session_id = ? AND expires_at > ?`,
		sessionID,
		toMillis(s.now().UTC()),
	)
	var (
		session   webstorage.Session
		cached    []byte
		cachedAt  int64
		createdAt int64
		expiresAt int64
	)
	if err := row.Scan(&session.ID, &session.UserID, &session.AccessToken, &cached, &cachedAt, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.Session{}, false, nil
		}
		return webstorage.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if len(cached) > 0 {
		session.CachedUser = cached
		session.CachedUserAt = fromMillis(cachedAt)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return session, true, nil
}

// SaveCachedUser stores the current user's record JSON on a session and
// stamps it with the store clock.
func (s *Store) SaveCachedUser(ctx context.Context, sessionID string, payload []byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	now := s.now().UTC()
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE web_sessions SET cached_user_json = ?, cached_user_at = ?, updated_at = ? WHERE session_id = ?`,
		nullableBytes(payload),
		toMillis(now),
		toMillis(now),
		sessionID,
	); err != nil {
		return fmt.Errorf("save cached user: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM web_sessions WHERE session_id = ?`, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func nullableBytes(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return value
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
