// Package session exchanges store access tokens for web sessions and
// resolves the session behind each request.
package session

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kscalelabs/storefront/internal/platform/requestctx"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/platform/sessioncookie"
	webstorage "github.com/kscalelabs/storefront/internal/services/web/storage"
)

// DefaultTTL bounds sessions whose token carries no expiry.
const DefaultTTL = 7 * 24 * time.Hour

type sessionContextKey struct{}

// Manager creates, resolves and revokes web sessions.
type Manager struct {
	store    webstorage.SessionStore
	verifier *Verifier
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewManager builds a session manager.
func NewManager(store webstorage.SessionStore, verifier *Verifier, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("session verifier is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, verifier: verifier, ttl: ttl, now: time.Now, newID: uuid.NewString}, nil
}

// Exchange verifies accessToken and persists a new session for its subject.
func (m *Manager) Exchange(ctx context.Context, accessToken string) (webstorage.Session, error) {
	claims, err := m.verifier.Verify(accessToken)
	if err != nil {
		return webstorage.Session{}, err
	}
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expiresAt) {
		expiresAt = claims.ExpiresAt
	}
	session := webstorage.Session{
		ID:          m.newID(),
		UserID:      claims.UserID,
		AccessToken: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(accessToken), "Bearer ")),
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if err := m.store.SaveSession(ctx, session); err != nil {
		return webstorage.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// Revoke deletes sessionID.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.DeleteSession(ctx, sessionID)
}

// RememberUser caches the current user's record JSON on sessionID.
func (m *Manager) RememberUser(ctx context.Context, sessionID string, payload []byte) error {
	return m.store.SaveCachedUser(ctx, sessionID, payload)
}

// Resolve loads the live session named by the request cookie.
func (m *Manager) Resolve(r *http.Request) (webstorage.Session, bool) {
	if session, ok := FromContext(r.Context()); ok {
		return session, true
	}
	sessionID, ok := sessioncookie.Read(r)
	if !ok {
		return webstorage.Session{}, false
	}
	session, found, err := m.store.LoadSession(r.Context(), sessionID)
	if err != nil {
		log.Printf("load web session failed path=%s err=%v", r.URL.Path, err)
		return webstorage.Session{}, false
	}
	return session, found
}

// Attach resolves the session once per request and exposes it through the
// request context, including the user id and bearer token for API calls.
func (m *Manager) Attach() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := m.Resolve(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// Viewer resolves chrome viewer state for a request.
func (m *Manager) Viewer(r *http.Request) module.Viewer {
	session, ok := FromContext(r.Context())
	if !ok {
		return module.Viewer{}
	}
	return module.Viewer{UserID: session.UserID, SignedIn: true}
}

// HasSession reports whether the request carries a resolved session.
func HasSession(r *http.Request) bool {
	_, ok := FromContext(r.Context())
	return ok
}

// WithSession stores session in ctx along with its caller identity.
func WithSession(ctx context.Context, session webstorage.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey{}, session)
	ctx = requestctx.WithUserID(ctx, session.UserID)
	return requestctx.WithAccessToken(ctx, session.AccessToken)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (webstorage.Session, bool) {
	if ctx == nil {
		return webstorage.Session{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(webstorage.Session)
	return session, ok
}
