// Package web assembles the browser-facing storefront service: session
// storage, store API and event stream clients, feature modules and the HTTP
// server that hosts them.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kscalelabs/storefront/internal/platform/timeouts"
	"github.com/kscalelabs/storefront/internal/services/web/app"
	"github.com/kscalelabs/storefront/internal/services/web/integration/eventstream"
	"github.com/kscalelabs/storefront/internal/services/web/integration/storeapi"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/modules/profile"
	"github.com/kscalelabs/storefront/internal/services/web/modules/public"
	"github.com/kscalelabs/storefront/internal/services/web/platform/requestmeta"
	"github.com/kscalelabs/storefront/internal/services/web/session"
	"github.com/kscalelabs/storefront/internal/services/web/storage/sqlite"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/kscalelabs/storefront/web"

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	// APIBaseURL roots the store REST API. Empty leaves the profile module
	// mounted but unhealthy.
	APIBaseURL string
	// EventsBaseURL roots the server-sent event stream. Empty disables live
	// updates.
	EventsBaseURL       string
	DBPath              string
	JWTSecret           string
	JWTIssuer           string
	SessionTTL          time.Duration
	APITimeout          time.Duration
	TrustForwardedProto bool
}

// Server hosts the web modules.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	store      *sqlite.Store
	// stopLive ends open websocket relays, which Shutdown does not track
	// once hijacked.
	stopLive  context.CancelFunc
	drainLive func(context.Context) error
}

// NewServer opens the session store and composes every module behind one
// root handler.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}

	verifier, err := session.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("init token verifier: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	manager, err := session.NewManager(store, verifier, cfg.SessionTTL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init session manager: %w", err)
	}

	lifetime, stopLive := context.WithCancel(context.Background())
	handler, profileModule, err := buildHandler(cfg, manager, lifetime)
	if err != nil {
		stopLive()
		_ = store.Close()
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	httpServer.RegisterOnShutdown(stopLive)
	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		store:      store,
		stopLive:   stopLive,
		drainLive:  profileModule.DrainLive,
	}, nil
}

func buildHandler(cfg Config, manager *session.Manager, lifetime context.Context) (http.Handler, profile.Module, error) {
	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	tracer := otel.Tracer(tracerName)

	gateway, err := storeGateway(cfg)
	if err != nil {
		return nil, profile.Module{}, err
	}
	events, err := eventSubscriber(cfg)
	if err != nil {
		return nil, profile.Module{}, err
	}

	profileModule := profile.NewModule(profile.Config{
		Gateway:       gateway,
		Events:        events,
		UserCache:     manager,
		ResolveViewer: manager.Viewer,
		Policy:        policy,
		Lifetime:      lifetime,
	})
	publicModule := public.New(public.Config{
		Sessions:      manager,
		ResolveViewer: manager.Viewer,
		Health:        []module.HealthReporter{profileModule},
		Policy:        policy,
	})
	if !profileModule.Healthy() {
		log.Printf("web: module=%s status=unavailable reason=%q", profileModule.ID(), "store api base url is not set")
	}
	if events == nil {
		log.Printf("web: live updates disabled reason=%q", "event stream base url is not set")
	}

	handler, err := app.BuildRootHandler(app.Config{
		Modules:       []module.Module{profileModule, publicModule},
		Policy:        policy,
		Tracer:        tracer,
		AttachSession: manager.Attach(),
	})
	if err != nil {
		return nil, profile.Module{}, fmt.Errorf("compose web modules: %w", err)
	}
	return handler, profileModule, nil
}

func storeGateway(cfg Config) (profile.Gateway, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return profile.NewStoreGateway(nil), nil
	}
	client, err := storeapi.New(cfg.APIBaseURL,
		storeapi.WithTracer(otel.Tracer(tracerName+"/storeapi")),
		storeapi.WithTimeout(cfg.APITimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("init store api client: %w", err)
	}
	return profile.NewStoreGateway(client), nil
}

func eventSubscriber(cfg Config) (profile.EventSubscriber, error) {
	if strings.TrimSpace(cfg.EventsBaseURL) == "" {
		return nil, nil
	}
	client, err := eventstream.New(cfg.EventsBaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("init event stream client: %w", err)
	}
	return profile.NewStreamSubscriber(client), nil
}

// Handler returns the composed root handler.
func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Handler
}

// ListenAndServe serves HTTP until ctx ends, then shuts down gracefully,
// closing live relays and waiting for them within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := s.drainLive(shutdownCtx); err != nil {
			return fmt.Errorf("drain live relays: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close ends live relays and releases the session store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.stopLive != nil {
		s.stopLive()
	}
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close session store: %v", err)
	}
}
