// Package storage declares persistence contracts for web-owned session data.
//
// Sessions reference identity owned by the store API; the web service keeps
// only what it needs to call that API on the visitor's behalf.
package storage

import (
	"context"
	"time"
)

// Session is one signed-in browser session.
type Session struct {
	ID          string
	UserID      string
	AccessToken string
	// CachedUser holds the JSON of the current user's record once fetched,
	// nil until then.
	CachedUser []byte
	// CachedUserAt is when CachedUser was stored.
	CachedUserAt time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// CachedUserFresh reports whether the cached user was stored less than ttl
// before now.
func (s Session) CachedUserFresh(now time.Time, ttl time.Duration) bool {
	if len(s.CachedUser) == 0 || s.CachedUserAt.IsZero() {
		return false
	}
	return now.Sub(s.CachedUserAt) < ttl
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore persists web sessions.
type SessionStore interface {
	Close() error
	SaveSession(ctx context.Context, session Session) error
	// LoadSession returns found=false for unknown or expired sessions.
	LoadSession(ctx context.Context, sessionID string) (Session, bool, error)
	SaveCachedUser(ctx context.Context, sessionID string, payload []byte) error
	DeleteSession(ctx context.Context, sessionID string) error
}
