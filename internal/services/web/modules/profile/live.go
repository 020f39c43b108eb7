package profile

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kscalelabs/storefront/internal/platform/timeouts"
	"github.com/kscalelabs/storefront/internal/services/web/integration/eventstream"
	flashnotice "github.com/kscalelabs/storefront/internal/services/web/platform/flash"
	webi18n "github.com/kscalelabs/storefront/internal/services/web/platform/i18n"
	"github.com/kscalelabs/storefront/internal/services/web/routepath"
	webtemplates "github.com/kscalelabs/storefront/internal/services/web/templates"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	liveTypeAlert    = "alert"
	liveTypeNavigate = "navigate"
	liveReadLimit    = 4096
)

// liveMessage is one server-to-browser message on the live relay.
type liveMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// clientMessage is one browser-to-server message on the live relay.
type clientMessage struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// liveRelay pushes profile events and alerts to one websocket.
type liveRelay struct {
	ctx  context.Context
	conn *websocket.Conn
	loc  webtemplates.Localizer
}

func (l liveRelay) send(msg liveMessage) {
	ctx, cancel := context.WithTimeout(l.ctx, timeouts.LiveWrite)
	defer cancel()
	if err := wsjson.Write(ctx, l.conn, msg); err != nil && l.ctx.Err() == nil {
		log.Printf("profile live write failed type=%s err=%v", msg.Type, err)
	}
}

func (l liveRelay) text(notice flashnotice.Notice) string {
	return flashnotice.Text(notice, func(key string) string { return webtemplates.T(l.loc, key) })
}

func (l liveRelay) handlers() EventHandlers {
	return EventHandlers{
		Image: func(id string) { l.send(liveMessage{Type: eventstream.EventImage, ID: id}) },
		URDF:  func(id string) { l.send(liveMessage{Type: eventstream.EventURDF, ID: id}) },
	}
}

func (l liveRelay) Error(err error) {
	if err == nil {
		return
	}
	notice := errorNotice(err)
	l.send(liveMessage{Type: liveTypeAlert, Kind: string(notice.Kind), Message: l.text(notice)})
}

func (l liveRelay) Success(key string) {
	notice := flashnotice.NoticeSuccess(key)
	l.send(liveMessage{Type: liveTypeAlert, Kind: string(notice.Kind), Message: l.text(notice)})
}

// handleLive upgrades to a websocket and relays image and urdf events for the
// requested subject until the browser leaves.
func (h handlers) handleLive(w http.ResponseWriter, r *http.Request) {
	tag, _ := webi18n.ResolveTag(r)
	session := sessionFromRequest(r, h.cache)

	if h.relays != nil {
		h.relays.Add(1)
		defer h.relays.Done()
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("profile live accept failed err=%v", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(liveReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	if h.lifetime != nil {
		stop := context.AfterFunc(h.lifetime, func() {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			cancel()
		})
		defer stop()
	}
	relay := liveRelay{ctx: ctx, conn: conn, loc: webi18n.Printer(tag)}
	p := New(Dependencies{
		Session:  session,
		Gateway:  h.gateway,
		Alerts:   relay,
		Events:   h.events,
		Handlers: relay.handlers(),
	})
	defer p.Close()
	defer cancel()

	p.Mount(ctx, r.URL.Query().Get(routepath.ProfileLiveUserParam))
	go keepAlive(ctx, conn, timeouts.LivePing)

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				log.Printf("profile live read failed err=%v", err)
			}
			return
		}
		if strings.TrimSpace(msg.Type) == liveTypeNavigate {
			p.Navigate(ctx, msg.User)
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, timeouts.LiveWrite)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
