// Package modulehandler provides a composable base for web module handlers.
//
// Modules embed Base to share viewer resolution, page rendering, flash notices
// and error writing.
package modulehandler

import (
	"net/http"

	"github.com/a-h/templ"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
	"github.com/kscalelabs/storefront/internal/services/web/platform/pagerender"
	"github.com/kscalelabs/storefront/internal/services/web/platform/requestmeta"
	"github.com/kscalelabs/storefront/internal/services/web/platform/weberror"
)

// Base carries request-scoped resolvers shared by module handlers.
type Base struct {
	resolveViewer module.ResolveViewer
	policy        requestmeta.SchemePolicy
}

// NewBase builds a handler base.
func NewBase(resolveViewer module.ResolveViewer, policy requestmeta.SchemePolicy) Base {
	return Base{resolveViewer: resolveViewer, policy: policy}
}

// ResolveRequestViewer resolves chrome viewer state for a request.
func (b Base) ResolveRequestViewer(r *http.Request) module.Viewer {
	if b.resolveViewer == nil || r == nil {
		return module.Viewer{}
	}
	return b.resolveViewer(r)
}

// SchemePolicy returns the configured request scheme policy.
func (b Base) SchemePolicy() requestmeta.SchemePolicy {
	return b.policy
}

// WriteError renders a localized module error response.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b.ResolveRequestViewer(r))
}

// WriteNotFound renders a 404 error page.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, b.ResolveRequestViewer(r))
}

// WritePage renders a full module page.
func (b Base) WritePage(w http.ResponseWriter, r *http.Request, title string, statusCode int, fragment templ.Component) {
	b.RenderPage(w, r, pagerender.ModulePage{Title: title, StatusCode: statusCode, Fragment: fragment})
}

// RenderPage renders page, falling back to the error page on render failure.
func (b Base) RenderPage(w http.ResponseWriter, r *http.Request, page pagerender.ModulePage) {
	if err := pagerender.WriteModulePage(w, r, b.ResolveRequestViewer(r), page); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteNotice stores a flash notice for the next page render.
func (b Base) WriteNotice(w http.ResponseWriter, r *http.Request, notice flashnotice.Notice) {
	flashnotice.WriteWithPolicy(w, r, notice, b.policy)
}
