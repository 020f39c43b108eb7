package templates

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// ErrorPageTitle returns the browser page title for error pages.
func ErrorPageTitle(statusCode int, loc Localizer) string {
	if statusCode == http.StatusNotFound {
		return T(loc, "web.error.title_not_found")
	}
	return T(loc, "web.error.title_server_error")
}

// ErrorState renders the error page body for statusCode.
func ErrorState(statusCode int, loc Localizer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := NewHTML(w)
		out.Raw(`<section class="error-state"`)
		out.Attr("data-status", http.StatusText(statusCode))
		out.Raw("><h1>")
		out.Text(ErrorPageTitle(statusCode, loc))
		out.Raw("</h1><p>")
		out.Text(errorMessage(statusCode, loc))
		out.Raw("</p></section>")
		return out.Err()
	})
}

func errorMessage(statusCode int, loc Localizer) string {
	switch statusCode {
	case http.StatusNotFound:
		return T(loc, "web.error.not_found")
	case http.StatusUnauthorized:
		return T(loc, "web.error.unauthorized")
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return T(loc, "web.error.unavailable")
	default:
		return T(loc, "web.error.internal")
	}
}
