package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kscalelabs/storefront/internal/services/web/integration/eventstream"
)

func strPtr(value string) *string { return &value }

func int64Ptr(value int64) *int64 { return &value }

// fakeGateway implements Gateway with canned records and call recording.
type fakeGateway struct {
	mu        sync.Mutex
	me        UserRecord
	users     map[string]UserRecord
	meErr     error
	publicErr error
	updateErr error
	updated   *UserRecord

	meCalls     int
	publicCalls []string
	updates     []UpdateRequest
}

func (g *fakeGateway) Me(context.Context) (UserRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meCalls++
	if g.meErr != nil {
		return UserRecord{}, g.meErr
	}
	return g.me, nil
}

func (g *fakeGateway) PublicUser(_ context.Context, userID string) (UserRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.publicCalls = append(g.publicCalls, userID)
	if g.publicErr != nil {
		return UserRecord{}, g.publicErr
	}
	record, ok := g.users[userID]
	if !ok {
		return UserRecord{}, &statusErr{code: 404}
	}
	return record, nil
}

func (g *fakeGateway) UpdateMe(_ context.Context, update UpdateRequest) (UserRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, update)
	if g.updateErr != nil {
		return UserRecord{}, g.updateErr
	}
	if g.updated != nil {
		return *g.updated, nil
	}
	return UserRecord{ID: g.me.ID, FirstName: update.FirstName, LastName: update.LastName, Bio: update.Bio}, nil
}

func (g *fakeGateway) calls() (int, []string, []UpdateRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.meCalls, append([]string(nil), g.publicCalls...), append([]UpdateRequest(nil), g.updates...)
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "upstream status" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

// fakeSession implements Session and UserRememberer.
type fakeSession struct {
	mu         sync.Mutex
	loading    bool
	userID     string
	cached     *UserRecord
	remembered []UserRecord
}

func (s *fakeSession) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *fakeSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *fakeSession) CachedUser() (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return UserRecord{}, false
	}
	return *s.cached, true
}

func (s *fakeSession) RememberUser(_ context.Context, record UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered = append(s.remembered, record)
}

func (s *fakeSession) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// fakeAlerts records alerts.
type fakeAlerts struct {
	mu        sync.Mutex
	errors    []error
	successes []string
}

func (a *fakeAlerts) Error(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors = append(a.errors, err)
}

func (a *fakeAlerts) Success(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successes = append(a.successes, key)
}

func (a *fakeAlerts) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.errors), len(a.successes)
}

// fakeSubscriber hands out fakeSubscriptions and logs open/close order.
type fakeSubscriber struct {
	mu   sync.Mutex
	log  []string
	subs map[string][]*fakeSubscription
	// leaky subscriptions keep their channel open after Close, so a test can
	// push an event that arrives after the switch.
	leaky bool
	err   error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{subs: map[string][]*fakeSubscription{}}
}

func (s *fakeSubscriber) Subscribe(_ context.Context, userID string) (LiveSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sub := &fakeSubscription{owner: s, userID: userID, events: make(chan eventstream.Event), leaky: s.leaky}
	s.subs[userID] = append(s.subs[userID], sub)
	s.log = append(s.log, "open:"+userID)
	return sub, nil
}

func (s *fakeSubscriber) record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
}

func (s *fakeSubscriber) entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeSubscriber) latest(t *testing.T, userID string) *fakeSubscription {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[userID]
	if len(subs) == 0 {
		t.Fatalf("no subscription for %q", userID)
	}
	return subs[len(subs)-1]
}

type fakeSubscription struct {
	owner  *fakeSubscriber
	userID string
	events chan eventstream.Event
	leaky  bool
	once   sync.Once
}

func (s *fakeSubscription) Events() <-chan eventstream.Event { return s.events }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() {
		s.owner.record("close:" + s.userID)
		if !s.leaky {
			close(s.events)
		}
	})
	return nil
}

func (s *fakeSubscription) push(t *testing.T, eventType string, data string) {
	t.Helper()
	select {
	case s.events <- eventstream.Event{Type: eventType, Data: []byte(data)}:
	case <-time.After(2 * time.Second):
		t.Fatalf("push %s to %s timed out", eventType, s.userID)
	}
}

// idRecorder collects handler invocations.
type idRecorder struct {
	mu  sync.Mutex
	ids []string
	ch  chan string
}

func newIDRecorder() *idRecorder {
	return &idRecorder{ch: make(chan string, 16)}
}

func (r *idRecorder) handle(id string) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	r.ch <- id
}

func (r *idRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case id := <-r.ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
		return ""
	}
}

func (r *idRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
