package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveTagPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("query param wins", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "http://store.local/profile?lang=pt-BR", nil)
		req.Header.Set("Accept-Language", "en")
		req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "en-US"})

		tag, persist := ResolveTag(req)
		if tag.String() != "pt-BR" {
			t.Fatalf("tag = %s, want pt-BR", tag)
		}
		if !persist {
			t.Fatal("persist = false, want true")
		}
	})

	t.Run("cookie wins over accept-language", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "http://store.local/profile", nil)
		req.Header.Set("Accept-Language", "pt-BR")
		req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "en-US"})

		tag, persist := ResolveTag(req)
		if tag.String() != "en-US" {
			t.Fatalf("tag = %s, want en-US", tag)
		}
		if persist {
			t.Fatal("persist = true, want false")
		}
	})

	t.Run("accept-language fallback", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "http://store.local/profile", nil)
		req.Header.Set("Accept-Language", "pt-BR, en;q=0.9")

		tag, _ := ResolveTag(req)
		if tag.String() != "pt-BR" {
			t.Fatalf("tag = %s, want pt-BR", tag)
		}
	})

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "http://store.local/profile?lang=not-a-lang", nil)
		tag, persist := ResolveTag(req)
		if tag.String() != "en-US" || persist {
			t.Fatalf("ResolveTag() = (%s, %v), want (en-US, false)", tag, persist)
		}
	})
}

func TestResolveLocalizerPersistsQuerySelection(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://store.local/profile?lang=pt-BR", nil)
	rr := httptest.NewRecorder()
	loc, lang := ResolveLocalizer(rr, req)
	if lang != "pt-BR" {
		t.Fatalf("lang = %q, want pt-BR", lang)
	}
	if got := loc.Sprintf("web.profile.no_name"); got != "Nenhum nome definido" {
		t.Fatalf("no_name = %q", got)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	if cookie.Name != LangCookieName || cookie.Value != "pt-BR" {
		t.Fatalf("cookie = %s=%s", cookie.Name, cookie.Value)
	}
}

func TestPrinterUsesBaseCatalog(t *testing.T) {
	t.Parallel()

	if got := Printer(Default()).Sprintf("web.profile.edit"); got != "Edit Profile" {
		t.Fatalf("edit = %q, want %q", got, "Edit Profile")
	}
}
