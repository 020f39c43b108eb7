package app

import (
	"net/http"

	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	"github.com/kscalelabs/storefront/internal/services/web/platform/sessioncookie"
)

// BuildRootHandler composes the configured modules behind the shared
// middleware chain: panic recovery, request ids, tracing, same-origin checks
// for cookie-bearing mutations, then session resolution.
func BuildRootHandler(cfg Config) (http.Handler, error) {
	root, err := Compose(ComposeInput{Modules: cfg.Modules})
	if err != nil {
		return nil, err
	}
	middleware := []httpx.Middleware{httpx.RecoverPanic(), httpx.RequestID()}
	if cfg.Tracer != nil {
		middleware = append(middleware, httpx.Trace(cfg.Tracer))
	}
	middleware = append(middleware, httpx.RequireSameOrigin(cfg.Policy, hasSessionCookie))
	if cfg.AttachSession != nil {
		middleware = append(middleware, cfg.AttachSession)
	}
	return httpx.Chain(root, middleware...), nil
}

func hasSessionCookie(r *http.Request) bool {
	_, ok := sessioncookie.Read(r)
	return ok
}
