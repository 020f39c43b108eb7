package profile

import (
	"context"
	"net/http"
	"sync"

	"github.com/a-h/templ"
	apperrors "github.com/kscalelabs/storefront/internal/services/web/platform/errors"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
	"github.com/kscalelabs/storefront/internal/services/web/platform/httpx"
	webi18n "github.com/kscalelabs/storefront/internal/services/web/platform/i18n"
	"github.com/kscalelabs/storefront/internal/services/web/platform/modulehandler"
	"github.com/kscalelabs/storefront/internal/services/web/platform/pagerender"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
)

type handlers struct {
	modulehandler.Base
	gateway  Gateway
	events   EventSubscriber
	cache    UserCache
	inflight *inflightGuard
	lifetime context.Context
	relays   *sync.WaitGroup
}

func newHandlers(m Module, base modulehandler.Base) handlers {
	return handlers{
		Base:     base,
		gateway:  m.gateway,
		events:   m.events,
		cache:    m.cache,
		inflight: newInflightGuard(),
		lifetime: m.lifetime,
		relays:   m.relays,
	}
}

// pageProfile mounts a request-scoped container without a live subscription.
func (h handlers) pageProfile(r *http.Request, alerts AlertSink, routeID string) Snapshot {
	p := New(Dependencies{
		Session: sessionFromRequest(r, h.cache),
		Gateway: h.gateway,
		Alerts:  alerts,
	})
	defer p.Close()
	p.Mount(httpx.RequestContext(r), routeID)
	return p.Snapshot()
}

func (h handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	if !h.requireSignedIn(w, r) {
		return
	}
	h.renderRead(w, r, "")
}

func (h handlers) handleUser(w http.ResponseWriter, r *http.Request) {
	h.renderRead(w, r, r.PathValue("userID"))
}

func (h handlers) renderRead(w http.ResponseWriter, r *http.Request, routeID string) {
	alerts := &noticeAlerts{}
	snap := h.pageProfile(r, alerts, routeID)
	loc, _ := webi18n.ResolveLocalizer(w, r)
	view := RenderProfile{Loc: loc}
	h.render(w, r, alerts, pageTitle(loc, snap), snapshotStatus(snap), view.Snapshot(snap))
}

func (h handlers) handleEditGet(w http.ResponseWriter, r *http.Request) {
	if !h.requireSignedIn(w, r) {
		return
	}
	alerts := &noticeAlerts{}
	snap := h.pageProfile(r, alerts, "")
	loc, _ := webi18n.ResolveLocalizer(w, r)
	view := RenderProfile{Loc: loc}
	if !snap.Found {
		h.render(w, r, alerts, pageTitle(loc, snap), snapshotStatus(snap), view.NotFound())
		return
	}
	edit := NewEditSession()
	edit.Begin(snap.Subject, snap.CanEdit)
	if edit.State() != StateEditing {
		h.WriteError(w, r, apperrors.EK(apperrors.KindForbidden, "web.error.unauthorized", "profile is not editable"))
		return
	}
	h.render(w, r, alerts, pageTitle(loc, snap), http.StatusOK, view.Edit(edit.Draft(), h.inflight.busy(sessionKey(r))))
}

func (h handlers) handleEditPost(w http.ResponseWriter, r *http.Request) {
	if !h.requireSignedIn(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, apperrors.EK(apperrors.KindInvalidInput, "web.error.internal", "failed to parse profile form"))
		return
	}
	draft := EditBuffer{
		FirstName: r.PostForm.Get(fieldFirstName),
		LastName:  r.PostForm.Get(fieldLastName),
		Bio:       r.PostForm.Get(fieldBio),
	}
	loc, _ := webi18n.ResolveLocalizer(w, r)
	view := RenderProfile{Loc: loc}

	key := sessionKey(r)
	if !h.inflight.acquire(key) {
		notice := flashnotice.NoticeError("web.profile.update_in_flight", "")
		h.RenderPage(w, r, pagerender.ModulePage{
			Title:      webtemplates.T(loc, "web.profile.edit"),
			StatusCode: http.StatusConflict,
			Fragment:   view.Edit(draft, true),
			Notice:     &notice,
		})
		return
	}
	defer h.inflight.release(key)

	alerts := &noticeAlerts{}
	p := New(Dependencies{
		Session: sessionFromRequest(r, h.cache),
		Gateway: h.gateway,
		Alerts:  alerts,
	})
	defer p.Close()
	ctx := httpx.RequestContext(r)
	p.Mount(ctx, "")
	snap := p.Snapshot()
	if !snap.Found {
		h.render(w, r, alerts, pageTitle(loc, snap), snapshotStatus(snap), view.NotFound())
		return
	}

	edit := NewEditSession()
	edit.Begin(snap.Subject, snap.CanEdit)
	if err := edit.Submit(ctx, draft, p.UpdateProfile); err != nil {
		status := apperrors.HTTPStatus(err)
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		h.render(w, r, alerts, webtemplates.T(loc, "web.profile.edit"), status, view.Edit(draft, false))
		return
	}
	if notice, ok := alerts.Last(); ok {
		h.WriteNotice(w, r, notice)
	}
	httpx.WriteRedirect(w, r, routepath.Profile)
}

func (h handlers) render(w http.ResponseWriter, r *http.Request, alerts *noticeAlerts, title string, status int, fragment templ.Component) {
	page := pagerender.ModulePage{Title: title, StatusCode: status, Fragment: fragment}
	if notice, ok := alerts.Last(); ok {
		page.Notice = &notice
	}
	h.RenderPage(w, r, page)
}

func (h handlers) requireSignedIn(w http.ResponseWriter, r *http.Request) bool {
	if h.ResolveRequestViewer(r).SignedIn {
		return true
	}
	h.WriteError(w, r, apperrors.EK(apperrors.KindUnauthorized, "web.error.unauthorized", "sign in required"))
	return false
}

func pageTitle(loc webtemplates.Localizer, snap Snapshot) string {
	if snap.Found {
		if name := snap.Subject.FullName(); name != "" {
			return name
		}
	}
	return webtemplates.T(loc, "web.profile.title")
}

func snapshotStatus(snap Snapshot) int {
	if snap.Found {
		return http.StatusOK
	}
	status := apperrors.HTTPStatus(snap.Err)
	if status < http.StatusBadRequest {
		return http.StatusNotFound
	}
	return status
}
