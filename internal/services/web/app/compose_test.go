package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	module "github.com/kscalelabs/storefront/internal/services/web/module"
)

type stubModule struct {
	id    string
	mount module.Mount
	err   error
}

func (s stubModule) ID() string {
	return s.id
}

func (s stubModule) Mount() (module.Mount, error) {
	return s.mount, s.err
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestComposeRejectsDuplicateModulePrefix(t *testing.T) {
	t.Parallel()

	_, err := Compose(ComposeInput{
		Modules: []module.Module{
			stubModule{id: "one", mount: module.Mount{Prefix: "/one/", Handler: statusHandler(http.StatusOK)}},
			stubModule{id: "two", mount: module.Mount{Prefix: "/one/", Handler: statusHandler(http.StatusOK)}},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicates prefix") {
		t.Fatalf("Compose() error = %v, want duplicate prefix", err)
	}
}

func TestComposeRejectsInvalidModulePrefixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
	}{
		{name: "empty", prefix: ""},
		{name: "missing leading slash", prefix: "profile/"},
		{name: "missing trailing slash", prefix: "/profile"},
		{name: "contains surrounding whitespace", prefix: "/profile/ "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Compose(ComposeInput{
				Modules: []module.Module{
					stubModule{id: "bad", mount: module.Mount{Prefix: tc.prefix, Handler: statusHandler(http.StatusOK)}},
				},
			})
			if err == nil {
				t.Fatalf("expected invalid prefix error")
			}
			if got := err.Error(); !strings.Contains(got, "invalid prefix") || !strings.Contains(got, "bad") {
				t.Fatalf("unexpected error = %q", got)
			}
		})
	}
}

func TestComposeRejectsNilModuleAndHandler(t *testing.T) {
	t.Parallel()

	if _, err := Compose(ComposeInput{Modules: []module.Module{nil}}); err == nil {
		t.Fatal("expected nil module error")
	}
	if _, err := Compose(ComposeInput{Modules: []module.Module{stubModule{id: "empty", mount: module.Mount{Prefix: "/x/"}}}}); err == nil {
		t.Fatal("expected missing handler error")
	}
}

func TestComposeMountsSlashlessAlias(t *testing.T) {
	t.Parallel()

	h, err := Compose(ComposeInput{
		Modules: []module.Module{
			stubModule{id: "public", mount: module.Mount{Prefix: "/", Handler: statusHandler(http.StatusTeapot)}},
			stubModule{id: "profile", mount: module.Mount{Prefix: "/profile/", Handler: statusHandler(http.StatusNoContent)}},
		},
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for path, want := range map[string]int{
		"/profile":     http.StatusNoContent,
		"/profile/":    http.StatusNoContent,
		"/profile/u-1": http.StatusNoContent,
		"/profiles":    http.StatusTeapot,
		"/":            http.StatusTeapot,
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != want {
			t.Fatalf("%s status = %d, want %d", path, rr.Code, want)
		}
	}
}
