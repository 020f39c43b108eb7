package profile

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	websession "github.com/kscalelabs/storefront/internal/services/web/session"
	webstorage "github.com/kscalelabs/storefront/internal/services/web/storage"
)

// cachedUserTTL bounds how long the current user cached on a web session
// stands in for a fresh Me call.
const cachedUserTTL = time.Minute

// UserCache persists the current user's record on a web session.
type UserCache interface {
	RememberUser(ctx context.Context, sessionID string, payload []byte) error
}

// requestSession exposes the web session attached to a request. Web sessions
// are resolved before handlers run, so it never reports loading.
type requestSession struct {
	cache UserCache
	now   func() time.Time

	mu     sync.Mutex
	stored webstorage.Session
}

func sessionFromRequest(r *http.Request, cache UserCache) Session {
	stored, ok := websession.FromContext(r.Context())
	if !ok {
		return anonymousSession{}
	}
	return &requestSession{cache: cache, now: time.Now, stored: stored}
}

func (s *requestSession) Loading() bool { return false }

func (s *requestSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored.UserID
}

func (s *requestSession) CachedUser() (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stored.CachedUserFresh(s.now(), cachedUserTTL) {
		return UserRecord{}, false
	}
	var record UserRecord
	if err := json.Unmarshal(s.stored.CachedUser, &record); err != nil {
		log.Printf("decode cached user failed session_id=%s err=%v", s.stored.ID, err)
		return UserRecord{}, false
	}
	if record.ID != s.stored.UserID {
		return UserRecord{}, false
	}
	return record, true
}

func (s *requestSession) RememberUser(ctx context.Context, record UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" || record.ID != s.stored.UserID {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	s.stored.CachedUser = payload
	s.stored.CachedUserAt = s.now()
	if s.cache == nil {
		return
	}
	if err := s.cache.RememberUser(ctx, s.stored.ID, payload); err != nil {
		log.Printf("cache current user failed session_id=%s err=%v", s.stored.ID, err)
	}
}

func sessionKey(r *http.Request) string {
	stored, ok := websession.FromContext(r.Context())
	if !ok {
		return ""
	}
	return stored.ID
}
