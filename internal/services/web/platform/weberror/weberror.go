// Package weberror renders shared error responses for web modules.
package weberror

import (
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	apperrors "github.com/kscalelabs/storefront/internal/services/web/platform/errors"
	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	webi18n "github.com/kscalelabs/storefront/internal/services/web/platform/i18n"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
)

// ShouldRenderAppError reports whether status should use the error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(loc webi18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if loc != nil {
		if key := apperrors.LocalizationKey(err); key != "" {
			if localized := strings.TrimSpace(loc.Sprintf(key)); localized != "" && localized != key {
				return localized
			}
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes a localized error page.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int, viewer module.Viewer) {
	if w == nil {
		return
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	loc, lang := webi18n.ResolveLocalizer(w, r)
	layout := webtemplates.Layout(webtemplates.PageContext{
		Title:    webtemplates.ErrorPageTitle(statusCode, loc),
		Lang:     lang,
		Loc:      loc,
		SignedIn: viewer.SignedIn,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	ctx := templ.WithChildren(httpx.RequestContext(r), webtemplates.ErrorState(statusCode, loc))
	if err := layout.Render(ctx, w); err != nil {
		log.Printf("render error page status=%d err=%v", statusCode, err)
	}
}

// WriteModuleError writes a module-safe localized error response. Raw error
// text is logged, never shown.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, viewer module.Viewer) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError && r != nil {
		log.Printf("web request failed method=%s path=%s status=%d err=%v", r.Method, r.URL.Path, statusCode, err)
	}
	if ShouldRenderAppError(statusCode) {
		WriteAppError(w, r, statusCode, viewer)
		return
	}
	loc, _ := webi18n.ResolveLocalizer(w, r)
	http.Error(w, PublicMessage(loc, err), statusCode)
}
