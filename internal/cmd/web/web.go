// Package web parses web command flags and starts the storefront web server.
package web

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/kscalelabs/storefront/internal/platform/cmd"
	"github.com/kscalelabs/storefront/internal/services/web"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"STOREFRONT_WEB_HTTP_ADDR"             envDefault:"localhost:8080"`
	APIBaseURL          string        `env:"STOREFRONT_WEB_API_BASE_URL"          envDefault:"http://localhost:8000"`
	EventsBaseURL       string        `env:"STOREFRONT_WEB_EVENTS_BASE_URL"`
	DBPath              string        `env:"STOREFRONT_WEB_DB_PATH"               envDefault:"data/web.db"`
	JWTSecret           string        `env:"STOREFRONT_WEB_JWT_SECRET"`
	JWTIssuer           string        `env:"STOREFRONT_WEB_JWT_ISSUER"`
	SessionTTL          time.Duration `env:"STOREFRONT_WEB_SESSION_TTL"           envDefault:"168h"`
	APITimeout          time.Duration `env:"STOREFRONT_WEB_API_TIMEOUT"           envDefault:"5s"`
	TrustForwardedProto bool          `env:"STOREFRONT_WEB_TRUST_FORWARDED_PROTO"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "store REST API base URL")
	fs.StringVar(&cfg.EventsBaseURL, "events-base-url", cfg.EventsBaseURL, "server-sent event stream base URL")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "web session SQLite path")
	fs.StringVar(&cfg.JWTIssuer, "jwt-issuer", cfg.JWTIssuer, "required access token issuer")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "web session lifetime")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", cfg.APITimeout, "store API request timeout")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "honor X-Forwarded-Proto")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the web server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		server, err := web.NewServer(web.Config{
			HTTPAddr:            cfg.HTTPAddr,
			APIBaseURL:          cfg.APIBaseURL,
			EventsBaseURL:       cfg.EventsBaseURL,
			DBPath:              cfg.DBPath,
			JWTSecret:           cfg.JWTSecret,
			JWTIssuer:           cfg.JWTIssuer,
			SessionTTL:          cfg.SessionTTL,
			APITimeout:          cfg.APITimeout,
			TrustForwardedProto: cfg.TrustForwardedProto,
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}
