package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
)

// Toast is a one-shot notice shown above page content.
type Toast struct {
	Kind    string
	Message string
}

// PageContext provides shared layout context for pages.
type PageContext struct {
	Title    string
	Lang     string
	Loc      Localizer
	SignedIn bool
	Toast    *Toast
}

// Layout renders the document shell around the children in ctx.
func Layout(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := NewHTML(w)
		appName := T(page.Loc, "web.app.name")
		title := strings.TrimSpace(page.Title)
		if title == "" {
			title = appName
		} else {
			title = title + " | " + appName
		}
		lang := strings.TrimSpace(page.Lang)
		if lang == "" {
			lang = "en-US"
		}

		out.Raw("<!doctype html><html")
		out.Attr("lang", lang)
		out.Raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		out.Text(title)
		out.Raw(`</title></head><body><header class="app-header"><a class="app-name"`)
		out.Attr("href", routepath.Profile)
		out.Raw(">")
		out.Text(appName)
		out.Raw("</a>")
		if page.SignedIn {
			out.Raw(`<nav><a`)
			out.Attr("href", routepath.Profile)
			out.Raw(">")
			out.Text(T(page.Loc, "web.nav.profile"))
			out.Raw(`</a><form method="post"`)
			out.Attr("action", routepath.Logout)
			out.Raw(`><button type="submit">`)
			out.Text(T(page.Loc, "web.nav.sign_out"))
			out.Raw("</button></form></nav>")
		}
		out.Raw("</header>")
		out.Component(ctx, ToastView(page.Toast))
		out.Raw(`<main id="main">`)
		out.Component(templ.ClearChildren(ctx), templ.GetChildren(ctx))
		out.Raw("</main></body></html>")
		return out.Err()
	})
}

// ToastView renders toast, or nothing when toast is nil.
func ToastView(toast *Toast) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if toast == nil || strings.TrimSpace(toast.Message) == "" {
			return nil
		}
		kind := strings.TrimSpace(toast.Kind)
		if kind == "" {
			kind = "info"
		}
		out := NewHTML(w)
		out.Raw(`<div role="status"`)
		out.Attr("class", "toast toast-"+kind)
		out.Attr("data-kind", kind)
		out.Raw(">")
		out.Text(toast.Message)
		out.Raw("</div>")
		return out.Err()
	})
}
