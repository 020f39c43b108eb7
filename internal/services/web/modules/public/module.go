// Package public serves the unauthenticated root routes: the landing page,
// health, web session exchange and logout.
package public

import (
	"context"
	"net/http"
	"time"

	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/platform/modulehandler"
	"github.com/kscalelabs/storefront/internal/services/web/platform/requestmeta"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	webstorage "github.com/kscalelabs/storefront/internal/services/web/storage"
)

// SessionExchanger creates and revokes web sessions.
type SessionExchanger interface {
	Exchange(ctx context.Context, accessToken string) (webstorage.Session, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Config carries the collaborators of the public module.
type Config struct {
	Sessions      SessionExchanger
	ResolveViewer module.ResolveViewer
	// Health lists modules whose gateways are reported by the health route.
	Health []module.HealthReporter
	Policy requestmeta.SchemePolicy
}

// Module provides root routes.
type Module struct {
	sessions      SessionExchanger
	resolveViewer module.ResolveViewer
	health        []module.HealthReporter
	policy        requestmeta.SchemePolicy
	now           func() time.Time
}

// New returns a public module.
func New(cfg Config) Module {
	return Module{
		sessions:      cfg.Sessions,
		resolveViewer: cfg.ResolveViewer,
		health:        cfg.Health,
		policy:        cfg.Policy,
		now:           time.Now,
	}
}

// ID returns a stable identifier for diagnostics and startup logs.
func (Module) ID() string { return "public" }

// Mount wires root routes.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{
		Base:     modulehandler.NewBase(m.resolveViewer, m.policy),
		sessions: m.sessions,
		health:   m.health,
		now:      m.now,
	}
	registerRoutes(mux, h)
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}

func registerRoutes(mux *http.ServeMux, h handlers) {
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", h.handleRoot)
	mux.HandleFunc(http.MethodGet+" "+routepath.Health, h.handleHealth)
	mux.HandleFunc(http.MethodPost+" "+routepath.AuthSession, h.handleSessionExchange)
	mux.HandleFunc(http.MethodPost+" "+routepath.Logout, h.handleLogout)
	mux.HandleFunc(routepath.Root, h.WriteNotFound)
}
