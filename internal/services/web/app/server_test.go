package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	module "github.com/kscalelabs/storefront/internal/services/web/module"
	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	"github.com/kscalelabs/storefront/internal/services/web/platform/sessioncookie"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func buildTestRoot(t *testing.T, handler http.Handler, attach func(http.Handler) http.Handler) (http.Handler, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	root, err := BuildRootHandler(Config{
		Modules:       []module.Module{stubModule{id: "profile", mount: module.Mount{Prefix: "/profile/", Handler: handler}}},
		Tracer:        provider.Tracer("test"),
		AttachSession: attach,
	})
	if err != nil {
		t.Fatalf("BuildRootHandler() error = %v", err)
	}
	return root, recorder
}

func TestRootHandlerRecoversPanicsAndTagsRequests(t *testing.T) {
	t.Parallel()

	root, recorder := buildTestRoot(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), nil)

	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile/u-1", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if rr.Header().Get(httpx.RequestIDHeader) == "" {
		t.Fatal("request id header missing")
	}
	if got := len(recorder.Ended()); got != 1 {
		t.Fatalf("ended spans = %d, want 1", got)
	}
}

func TestRootHandlerRejectsCrossOriginCookieMutation(t *testing.T) {
	t.Parallel()

	attached := false
	root, _ := buildTestRoot(t, statusHandler(http.StatusNoContent), func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attached = true
			next.ServeHTTP(w, r)
		})
	})

	req := httptest.NewRequest(http.MethodPost, "http://example.com/profile/-/edit", nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "s-1"})
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
	if attached {
		t.Fatal("session attached for rejected request")
	}

	req = httptest.NewRequest(http.MethodPost, "http://example.com/profile/-/edit", nil)
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "s-1"})
	req.Header.Set("Origin", "http://example.com")
	rr = httptest.NewRecorder()
	root.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || !attached {
		t.Fatalf("same-origin status = %d attached = %v", rr.Code, attached)
	}
}
