package requestmeta

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsHTTPSWithPolicy(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest(http.MethodGet, "http://store.local/profile", nil)
	if IsHTTPSWithPolicy(plain, SchemePolicy{}) {
		t.Fatal("plain request reported https")
	}

	forwarded := httptest.NewRequest(http.MethodGet, "/profile", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")
	if IsHTTPSWithPolicy(forwarded, SchemePolicy{}) {
		t.Fatal("forwarded proto trusted without policy")
	}
	if !IsHTTPSWithPolicy(forwarded, SchemePolicy{TrustForwardedProto: true}) {
		t.Fatal("forwarded proto ignored with policy")
	}

	secure := httptest.NewRequest(http.MethodGet, "/profile", nil)
	secure.URL.Scheme = ""
	secure.TLS = &tls.ConnectionState{}
	if !IsHTTPSWithPolicy(secure, SchemePolicy{}) {
		t.Fatal("tls request not reported https")
	}
	if IsHTTPSWithPolicy(nil, SchemePolicy{}) {
		t.Fatal("nil request reported https")
	}
}

func TestHasSameOriginProofWithPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		referer string
		want    bool
	}{
		{name: "matching origin", origin: "http://store.local", want: true},
		{name: "explicit default port", origin: "http://store.local:80", want: true},
		{name: "other host", origin: "http://evil.local", want: false},
		{name: "other scheme", origin: "https://store.local", want: false},
		{name: "referer fallback", referer: "http://store.local/profile/-/edit", want: true},
		{name: "no proof", want: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "http://store.local/profile/-/edit", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}
			if got := HasSameOriginProofWithPolicy(req, SchemePolicy{}); got != tc.want {
				t.Fatalf("HasSameOriginProofWithPolicy() = %v, want %v", got, tc.want)
			}
		})
	}
}
