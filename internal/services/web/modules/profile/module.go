// Package profile serves the user profile page: viewing any user, editing
// the signed-in user's display fields, and relaying live image and urdf
// events for the viewed user.
package profile

import (
	"context"
	"net/http"
	"sync"

	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/platform/modulehandler"
	"github.com/kscalelabs/storefront/internal/services/web/platform/requestmeta"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
)

// Config carries the collaborators of the profile module.
type Config struct {
	Gateway       Gateway
	Events        EventSubscriber
	UserCache     UserCache
	ResolveViewer module.ResolveViewer
	Policy        requestmeta.SchemePolicy
	// Lifetime ends every open live relay when done. Nil leaves relays open
	// until the browser leaves.
	Lifetime context.Context
}

// Module provides profile routes.
type Module struct {
	gateway       Gateway
	events        EventSubscriber
	cache         UserCache
	resolveViewer module.ResolveViewer
	policy        requestmeta.SchemePolicy
	lifetime      context.Context
	relays        *sync.WaitGroup
}

// NewModule returns a profile module. A nil gateway leaves the module mounted
// but unhealthy.
func NewModule(cfg Config) Module {
	gateway := cfg.Gateway
	if gateway == nil {
		gateway = unavailableGateway{}
	}
	return Module{
		gateway:       gateway,
		events:        cfg.Events,
		cache:         cfg.UserCache,
		resolveViewer: cfg.ResolveViewer,
		policy:        cfg.Policy,
		lifetime:      cfg.Lifetime,
		relays:        &sync.WaitGroup{},
	}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "profile" }

// Healthy reports whether the profile module has an operational gateway.
func (m Module) Healthy() bool {
	if m.gateway == nil {
		return false
	}
	_, unavailable := m.gateway.(unavailableGateway)
	return !unavailable
}

// DrainLive waits for every open live relay to finish or ctx to end.
func (m Module) DrainLive(ctx context.Context) error {
	if m.relays == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		m.relays.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mount wires profile route handlers.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	h := newHandlers(m, modulehandler.NewBase(m.resolveViewer, m.policy))
	registerRoutes(mux, h)
	return module.Mount{Prefix: routepath.ProfilePrefix, Handler: mux}, nil
}
