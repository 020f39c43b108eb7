// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	webi18n "github.com/kscalelabs/storefront/internal/services/web/platform/i18n"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
)

// ModulePage describes a module page response.
type ModulePage struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
	// Notice is shown instead of any pending flash notice.
	Notice *flashnotice.Notice
}

// WriteModulePage renders page inside the shared layout. Any pending flash
// notice is consumed and shown as a toast. The body is buffered so render
// failures surface before the status line is written.
func WriteModulePage(w http.ResponseWriter, r *http.Request, viewer module.Viewer, page ModulePage) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = templ.NopComponent
	}

	loc, lang := webi18n.ResolveLocalizer(w, r)
	layout := webtemplates.Layout(webtemplates.PageContext{
		Title:    page.Title,
		Lang:     lang,
		Loc:      loc,
		SignedIn: viewer.SignedIn,
		Toast:    resolveToast(w, r, loc, page.Notice),
	})

	var buf bytes.Buffer
	if err := layout.Render(templ.WithChildren(httpx.RequestContext(r), fragment), &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func resolveToast(w http.ResponseWriter, r *http.Request, loc webi18n.Localizer, inline *flashnotice.Notice) *webtemplates.Toast {
	notice, ok := flashnotice.ReadAndClear(w, r)
	if inline != nil {
		notice, ok = *inline, true
	}
	if !ok {
		return nil
	}
	message := flashnotice.Text(notice, func(key string) string { return loc.Sprintf(key) })
	if message == "" {
		return nil
	}
	return &webtemplates.Toast{Kind: string(notice.Kind), Message: message}
}
