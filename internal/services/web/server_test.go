package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kscalelabs/storefront/internal/services/web/platform/sessioncookie"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:   "127.0.0.1:0",
		DBPath:     filepath.Join(t.TempDir(), "web.db"),
		JWTSecret:  testSecret,
		JWTIssuer:  "store",
		SessionTTL: time.Hour,
	}
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "store",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewServerRequiresAddressSecretAndStorage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing addr", mutate: func(cfg *Config) { cfg.HTTPAddr = " " }},
		{name: "missing secret", mutate: func(cfg *Config) { cfg.JWTSecret = "" }},
		{name: "missing db path", mutate: func(cfg *Config) { cfg.DBPath = "" }},
		{name: "bad api url", mutate: func(cfg *Config) { cfg.APIBaseURL = "ftp://store" }},
		{name: "bad events url", mutate: func(cfg *Config) { cfg.EventsBaseURL = "ws://events" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			tc.mutate(&cfg)
			server, err := NewServer(cfg)
			if err == nil {
				server.Close()
				t.Fatal("expected error")
			}
		})
	}
}

func TestServerReportsDegradedWithoutStoreAPI(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, testConfig(t))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/up", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestServerExchangesTokenAndRendersOwnProfile(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gotAuth string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/public/me" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"user-1","first_name":"Ada","last_name":"Lovelace","created_at":0}`))
	}))
	t.Cleanup(api.Close)

	cfg := testConfig(t)
	cfg.APIBaseURL = api.URL
	server := newTestServer(t, cfg)
	handler := server.Handler()

	up := httptest.NewRecorder()
	handler.ServeHTTP(up, httptest.NewRequest(http.MethodGet, "/up", nil))
	if up.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", up.Code, http.StatusOK)
	}

	token := signedToken(t, "user-1")
	exchange := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"access_token":"`+token+`"}`))
	exchange.Header.Set("Content-Type", "application/json")
	exchangeRR := httptest.NewRecorder()
	handler.ServeHTTP(exchangeRR, exchange)
	if exchangeRR.Code != http.StatusOK {
		t.Fatalf("exchange status = %d, want %d", exchangeRR.Code, http.StatusOK)
	}
	var sessionCookie *http.Cookie
	for _, cookie := range exchangeRR.Result().Cookies() {
		if cookie.Name == sessioncookie.Name {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil).WithContext(context.Background())
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: sessionCookie.Value})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Ada Lovelace") {
		t.Fatalf("body missing full name: %q", body)
	}
	if !strings.Contains(body, "January 1, 1970") {
		t.Fatalf("body missing join date: %q", body)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer "+token {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestShutdownClosesLiveRelays(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, testConfig(t))
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+routepath.ProfileLiveFor("user-1"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	if err := server.httpServer.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	for {
		var msg map[string]any
		err := wsjson.Read(ctx, conn, &msg)
		if err == nil {
			continue
		}
		if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
			t.Fatalf("Read() error = %v, want going away close", err)
		}
		break
	}
	if err := server.drainLive(ctx); err != nil {
		t.Fatalf("drainLive() error = %v", err)
	}
}

func TestListenAndServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
