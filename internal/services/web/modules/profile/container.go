package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/kscalelabs/storefront/internal/services/web/integration/eventstream"
	apperrors "github.com/kscalelabs/storefront/internal/services/web/platform/errors"
)

// Profile resolves, fetches and updates the subject of one profile page and
// owns its single live subscription.
//
// A fetch still in flight is not cancelled by Navigate or Close. When two
// fetches overlap, the one that finishes last wins.
type Profile struct {
	deps Dependencies

	mu      sync.Mutex
	mounted bool
	closed  bool
	pending bool
	routeID string
	subject *UserRecord
	canEdit bool
	state   ViewState
	lastErr error

	// dispatchMu serializes event delivery against subscription switches.
	dispatchMu sync.Mutex
	generation uint64
	sub        LiveSubscription
	subUserID  string
	pumps      sync.WaitGroup
}

// Snapshot is a consistent copy of the container state.
type Snapshot struct {
	State   ViewState
	RouteID string
	Subject UserRecord
	Found   bool
	CanEdit bool
	Err     error
}

// New builds an unmounted profile. Missing collaborators get inert defaults.
func New(deps Dependencies) *Profile {
	if deps.Session == nil {
		deps.Session = anonymousSession{}
	}
	if deps.Gateway == nil {
		deps.Gateway = unavailableGateway{}
	}
	if deps.Alerts == nil {
		deps.Alerts = discardAlerts{}
	}
	defaults := LoggingHandlers()
	if deps.Handlers.Image == nil {
		deps.Handlers.Image = defaults.Image
	}
	if deps.Handlers.URDF == nil {
		deps.Handlers.URDF = defaults.URDF
	}
	return &Profile{deps: deps, state: StateLoading}
}

// Mount shows routeID, or the current user when routeID is empty. While the
// session is loading the fetch waits for AuthReady.
func (p *Profile) Mount(ctx context.Context, routeID string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mounted = true
	p.mu.Unlock()
	p.show(ctx, routeID, true)
}

// Navigate switches to routeID. An unchanged id does nothing.
func (p *Profile) Navigate(ctx context.Context, routeID string) {
	p.show(ctx, routeID, false)
}

func (p *Profile) show(ctx context.Context, routeID string, force bool) {
	routeID = strings.TrimSpace(routeID)
	p.mu.Lock()
	if p.closed || !p.mounted || (!force && routeID == p.routeID) {
		p.mu.Unlock()
		return
	}
	p.routeID = routeID
	if p.deps.Session.Loading() {
		p.pending = true
		p.state = StateLoading
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.mu.Unlock()
	p.load(ctx, routeID)
}

// AuthReady issues the fetch deferred while the session was loading.
func (p *Profile) AuthReady(ctx context.Context) {
	p.mu.Lock()
	if p.closed || !p.pending {
		p.mu.Unlock()
		return
	}
	p.pending = false
	routeID := p.routeID
	p.mu.Unlock()
	p.load(ctx, routeID)
}

func (p *Profile) load(ctx context.Context, routeID string) {
	record, canEdit, err := p.resolve(ctx, routeID)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if err != nil {
		err = apperrors.FetchError(err)
		p.subject = nil
		p.canEdit = false
		p.state = StateNotFound
		p.lastErr = err
		p.mu.Unlock()
		p.deps.Alerts.Error(err)
		p.subscribe(ctx, "")
		return
	}
	p.subject = &record
	p.canEdit = canEdit
	p.state = StateViewing
	p.lastErr = nil
	p.mu.Unlock()
	p.subscribe(ctx, record.ID)
}

func (p *Profile) resolve(ctx context.Context, routeID string) (UserRecord, bool, error) {
	if routeID == "" {
		if cached, ok := p.deps.Session.CachedUser(); ok {
			return cached, true, nil
		}
		record, err := p.deps.Gateway.Me(ctx)
		if err != nil {
			return UserRecord{}, false, err
		}
		p.remember(ctx, record)
		return record, true, nil
	}
	record, err := p.deps.Gateway.PublicUser(ctx, routeID)
	if err != nil {
		return UserRecord{}, false, err
	}
	if record.ID == "" {
		record.ID = routeID
	}
	viewerID := strings.TrimSpace(p.deps.Session.UserID())
	return record, viewerID != "" && viewerID == record.ID, nil
}

func (p *Profile) remember(ctx context.Context, record UserRecord) {
	if rememberer, ok := p.deps.Session.(UserRememberer); ok {
		rememberer.RememberUser(ctx, record)
	}
}

// UpdateProfile writes update through the gateway and merges the fields the
// backend returns into the subject. Failures are alerted and returned.
func (p *Profile) UpdateProfile(ctx context.Context, update UpdateRequest) (UserRecord, error) {
	p.mu.Lock()
	canEdit := p.canEdit && p.subject != nil
	p.mu.Unlock()
	if !canEdit {
		err := apperrors.UpdateError(apperrors.EK(apperrors.KindForbidden, "web.error.unauthorized", "profile is not editable"))
		p.deps.Alerts.Error(err)
		return UserRecord{}, err
	}

	updated, err := p.deps.Gateway.UpdateMe(ctx, update)
	if err != nil {
		err = apperrors.UpdateError(err)
		p.deps.Alerts.Error(err)
		return UserRecord{}, err
	}

	p.mu.Lock()
	merged := updated
	if p.subject != nil {
		merged = p.subject.Merge(updated)
		p.subject = &merged
	}
	p.mu.Unlock()
	p.remember(ctx, merged)
	p.deps.Alerts.Success("web.profile.updated")
	return merged, nil
}

// Snapshot returns the current state.
func (p *Profile) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{State: p.state, RouteID: p.routeID, CanEdit: p.canEdit, Err: p.lastErr}
	if p.subject != nil {
		snap.Subject = *p.subject
		snap.Found = true
	}
	return snap
}

// Close releases the live subscription. No event is delivered afterwards.
func (p *Profile) Close() error {
	p.dispatchMu.Lock()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.dispatchMu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	p.generation++
	sub := p.sub
	p.sub = nil
	p.subUserID = ""
	p.dispatchMu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	p.pumps.Wait()
	return err
}

// subscribe makes userID the only subject with an open subscription. The
// previous subscription is closed before the next one opens.
func (p *Profile) subscribe(ctx context.Context, userID string) {
	if p.deps.Events == nil {
		return
	}
	p.dispatchMu.Lock()
	if p.sub != nil && p.subUserID == userID {
		p.dispatchMu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	old := p.sub
	p.sub = nil
	p.subUserID = ""
	p.dispatchMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("profile close subscription failed err=%v", err)
		}
	}
	if userID == "" {
		return
	}

	sub, err := p.deps.Events.Subscribe(ctx, userID)
	if err != nil {
		log.Printf("profile subscribe failed user_id=%s err=%v", userID, err)
		return
	}

	p.dispatchMu.Lock()
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || gen != p.generation {
		p.dispatchMu.Unlock()
		_ = sub.Close()
		return
	}
	p.sub = sub
	p.subUserID = userID
	p.pumps.Add(1)
	p.dispatchMu.Unlock()
	go p.pump(gen, sub)
}

func (p *Profile) pump(gen uint64, sub LiveSubscription) {
	defer p.pumps.Done()
	for event := range sub.Events() {
		p.dispatch(gen, event)
	}
}

type eventPayload struct {
	ID string `json:"id"`
}

// dispatch delivers event if its subscription is still current. Handlers run
// with dispatchMu held and must not call back into the Profile.
func (p *Profile) dispatch(gen uint64, event eventstream.Event) {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()
	if gen != p.generation {
		return
	}

	var payload eventPayload
	err := json.Unmarshal(event.Data, &payload)
	if err == nil && strings.TrimSpace(payload.ID) == "" {
		err = fmt.Errorf("missing id")
	}
	if err != nil {
		log.Printf("profile live event dropped err=%v", apperrors.StreamParseError(event.Type, err))
		return
	}

	switch event.Type {
	case eventstream.EventImage:
		p.deps.Handlers.Image(payload.ID)
	case eventstream.EventURDF:
		p.deps.Handlers.URDF(payload.ID)
	}
}
