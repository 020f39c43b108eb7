// Package i18n resolves the request language and message printer for web pages.
package i18n

import (
	"net/http"
	"strings"

	"github.com/kscalelabs/storefront/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "sf_lang"
)

// Localizer translates catalog keys.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

var matcher = language.NewMatcher(Supported())

// Supported returns the language tags backed by an embedded catalog.
func Supported() []language.Tag {
	return catalog.Default().Tags()
}

// Default returns the fallback language tag.
func Default() language.Tag {
	return language.MustParse(catalog.BaseLocale)
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag picks the language for r: query parameter, then cookie, then
// Accept-Language. The bool reports whether the query selected it and it
// should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
		if tag, ok := supportedTag(raw); ok {
			return tag, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil && cookie != nil {
		if tag, ok := supportedTag(cookie.Value); ok {
			return tag, false
		}
	}
	if header := strings.TrimSpace(r.Header.Get("Accept-Language")); header != "" {
		prefs, _, err := language.ParseAcceptLanguage(header)
		if err == nil && len(prefs) > 0 {
			_, idx, conf := matcher.Match(prefs...)
			if conf != language.No {
				return Supported()[idx], false
			}
		}
	}
	return Default(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ResolveLocalizer resolves the request language, persisting an explicit
// query selection, and returns its printer and tag string.
func ResolveLocalizer(w http.ResponseWriter, r *http.Request) (*message.Printer, string) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return Printer(tag), tag.String()
}

func supportedTag(raw string) (language.Tag, bool) {
	parsed, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(parsed)
	if conf == language.No {
		return language.Und, false
	}
	return Supported()[idx], true
}
