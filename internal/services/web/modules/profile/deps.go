package profile

import (
	"context"
	"log"

	"github.com/kscalelabs/storefront/internal/services/web/integration/eventstream"
)

// Session is the authentication state a profile reads.
type Session interface {
	// Loading reports whether the auth state is still being established.
	Loading() bool
	UserID() string
	// CachedUser returns the current user's record if the session holds one.
	CachedUser() (UserRecord, bool)
}

// UserRememberer is implemented by sessions that can cache the current user.
type UserRememberer interface {
	RememberUser(ctx context.Context, record UserRecord)
}

// LiveSubscription is one open push stream for a subject.
type LiveSubscription interface {
	Events() <-chan eventstream.Event
	Close() error
}

// EventSubscriber opens push streams of image and urdf events.
type EventSubscriber interface {
	Subscribe(ctx context.Context, userID string) (LiveSubscription, error)
}

// EventHandlers receive the ids carried by push events.
type EventHandlers struct {
	Image func(id string)
	URDF  func(id string)
}

// LoggingHandlers only log received events.
func LoggingHandlers() EventHandlers {
	return EventHandlers{
		Image: func(id string) { log.Printf("profile image event id=%s", id) },
		URDF:  func(id string) { log.Printf("profile urdf event id=%s", id) },
	}
}

// Dependencies are the collaborators of a Profile.
type Dependencies struct {
	Session  Session
	Gateway  Gateway
	Alerts   AlertSink
	Events   EventSubscriber
	Handlers EventHandlers
}

// NewStreamSubscriber adapts the event stream client.
func NewStreamSubscriber(client *eventstream.Client) EventSubscriber {
	if client == nil {
		return nil
	}
	return streamSubscriber{client: client}
}

type streamSubscriber struct {
	client *eventstream.Client
}

func (s streamSubscriber) Subscribe(ctx context.Context, userID string) (LiveSubscription, error) {
	sub, err := s.client.Subscribe(ctx, userID, eventstream.EventImage, eventstream.EventURDF)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

type anonymousSession struct{}

func (anonymousSession) Loading() bool                  { return false }
func (anonymousSession) UserID() string                 { return "" }
func (anonymousSession) CachedUser() (UserRecord, bool) { return UserRecord{}, false }
