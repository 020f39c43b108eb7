package app

import (
	"net/http"

	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/platform/requestmeta"
	"go.opentelemetry.io/otel/trace"
)

// Config captures the composition inputs for the web root handler.
type Config struct {
	Modules []module.Module
	Policy  requestmeta.SchemePolicy
	// Tracer names server spans. Nil disables request tracing.
	Tracer trace.Tracer
	// AttachSession resolves the web session once per request.
	AttachSession func(http.Handler) http.Handler
}
