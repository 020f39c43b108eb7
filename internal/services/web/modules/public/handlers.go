package public

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	module "github.com/kscalelabs/storefront/internal/services/web/module"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	webi18n "github.com/kscalelabs/storefront/internal/services/web/platform/i18n"
	"github.com/kscalelabs/storefront/internal/services/web/platform/modulehandler"
	"github.com/kscalelabs/storefront/internal/services/web/platform/sessioncookie"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	websession "github.com/kscalelabs/storefront/internal/services/web/session"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
)

const maxExchangeBody = 16 << 10

type handlers struct {
	modulehandler.Base
	sessions SessionExchanger
	health   []module.HealthReporter
	now      func() time.Time
}

func (h handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	if h.ResolveRequestViewer(r).SignedIn {
		httpx.WriteRedirect(w, r, routepath.Profile)
		return
	}
	loc, _ := webi18n.ResolveLocalizer(w, r)
	h.WritePage(w, r, webtemplates.T(loc, "web.home.title"), http.StatusOK, landing(loc))
}

func landing(loc webtemplates.Localizer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := webtemplates.NewHTML(w)
		out.Raw(`<section id="landing"><p>`)
		out.Text(webtemplates.T(loc, "web.home.sign_in"))
		out.Raw(`</p></section>`)
		return out.Err()
	})
}

func (h handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	for _, reporter := range h.health {
		if reporter != nil && !reporter.Healthy() {
			_ = httpx.WriteHTML(w, http.StatusServiceUnavailable, "degraded")
			return
		}
	}
	_ = httpx.WriteHTML(w, http.StatusOK, "ok")
}

// handleSessionExchange trades a store access token for a web session. The
// token may arrive as a bearer header, a JSON body or a form field. JSON
// callers get JSON back; form posts are redirected to the profile.
func (h handlers) handleSessionExchange(w http.ResponseWriter, r *http.Request) {
	wantsJSON := isJSON(r)
	token, err := readAccessToken(r, wantsJSON)
	if err != nil || token == "" {
		h.writeExchangeError(w, r, wantsJSON, http.StatusBadRequest, "web.auth.invalid_token")
		return
	}
	if h.sessions == nil {
		h.writeExchangeError(w, r, wantsJSON, http.StatusServiceUnavailable, "web.error.unavailable")
		return
	}

	stored, err := h.sessions.Exchange(r.Context(), token)
	if err != nil {
		if errors.Is(err, websession.ErrInvalidToken) {
			h.writeExchangeError(w, r, wantsJSON, http.StatusUnauthorized, "web.auth.invalid_token")
			return
		}
		log.Printf("web session exchange failed err=%v", err)
		h.writeExchangeError(w, r, wantsJSON, http.StatusInternalServerError, "web.error.internal")
		return
	}

	sessioncookie.WriteWithPolicy(w, r, stored.ID, stored.ExpiresAt.Sub(h.now()), h.SchemePolicy())
	if wantsJSON {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"user_id":      stored.UserID,
			"redirect_url": routepath.Profile,
		})
		return
	}
	httpx.WriteRedirect(w, r, routepath.Profile)
}

func (h handlers) writeExchangeError(w http.ResponseWriter, r *http.Request, wantsJSON bool, status int, key string) {
	loc, _ := webi18n.ResolveLocalizer(w, r)
	message := webtemplates.T(loc, key)
	if wantsJSON {
		_ = httpx.WriteJSONError(w, status, message)
		return
	}
	http.Error(w, message, status)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, hasSession := sessioncookie.Read(r)
	sessioncookie.ClearWithPolicy(w, r, h.SchemePolicy())
	if hasSession && h.sessions != nil {
		if err := h.sessions.Revoke(r.Context(), sessionID); err != nil {
			log.Printf("revoke web session failed err=%v", err)
		}
	}
	h.WriteNotice(w, r, flashnotice.Notice{Kind: flashnotice.KindInfo, Key: "web.auth.signed_out"})
	httpx.WriteRedirect(w, r, routepath.Root)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func readAccessToken(r *http.Request, wantsJSON bool) (string, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxExchangeBody)
	if wantsJSON {
		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return "", err
		}
		return strings.TrimSpace(payload.AccessToken), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.PostForm.Get("access_token")), nil
}
