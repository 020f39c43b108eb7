package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	webstorage "github.com/kscalelabs/storefront/internal/services/web/storage"
)

const testSecret = "test-secret"

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]webstorage.Session
	loadErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]webstorage.Session{}}
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) SaveSession(_ context.Context, session webstorage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memoryStore) LoadSession(_ context.Context, sessionID string) (webstorage.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return webstorage.Session{}, false, s.loadErr
	}
	session, ok := s.sessions[sessionID]
	return session, ok, nil
}

func (s *memoryStore) SaveCachedUser(_ context.Context, sessionID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[sessionID]
	session.CachedUser = payload
	session.CachedUserAt = time.Now()
	s.sessions[sessionID] = session
	return nil
}

func (s *memoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func userToken(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()
	return signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
}
