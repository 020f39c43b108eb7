// Package eventstream subscribes to the per-user server-sent event stream.
package eventstream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kscalelabs/storefront/internal/platform/requestctx"
	"github.com/kscalelabs/storefront/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	// EventImage announces a new image for the user.
	EventImage = "image"
	// EventURDF announces a new URDF for the user.
	EventURDF = "urdf"

	defaultEventType = "message"
	maxLineSize      = 1 << 20
)

var (
	// ErrStreamClosed reports that the server ended the stream.
	ErrStreamClosed = errors.New("event stream closed by server")
	// ErrConnectTimeout reports a stream endpoint that never sent headers.
	ErrConnectTimeout = errors.New("event stream connect timed out")
)

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	ID   string
	Data []byte
}

// StatusError reports a stream endpoint that refused the subscription.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("event stream: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPStatusCode returns the upstream HTTP status.
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client opens event stream subscriptions.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	connectTimeout time.Duration
}

// New builds a client for streams rooted at baseURL. httpClient must not set
// a Timeout since streams are long-lived; nil uses a dedicated client.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("event stream base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse event stream base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("event stream base url %q must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: timeouts.StreamConnect,
		}}
	}
	return &Client{
		baseURL:        strings.TrimSuffix(parsed.String(), "/"),
		httpClient:     httpClient,
		connectTimeout: timeouts.StreamConnect,
	}, nil
}

// Subscribe connects to the stream of userID and delivers events whose type
// is in types (all events when types is empty). The connection lives until
// Close is called or ctx ends. Waiting for the response headers is bounded
// by the connect timeout whatever transport the client uses.
func (c *Client) Subscribe(ctx context.Context, userID string, types ...string) (*Subscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("event stream user id is required")
	}
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.baseURL+"/events/user/"+url.PathEscape(userID), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build event stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token := requestctx.AccessTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	timer := time.AfterFunc(c.connectTimeout, cancel)
	resp, err := c.httpClient.Do(req)
	if !timer.Stop() && ctx.Err() == nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("open event stream for %s: %w", userID, ErrConnectTimeout)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open event stream for %s: %w", userID, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	sub := &Subscription{
		userID: userID,
		events: make(chan Event),
		cancel: cancel,
		done:   make(chan struct{}),
		filter: eventFilter(types),
	}
	go sub.run(streamCtx, resp.Body)
	return sub, nil
}

func eventFilter(types []string) map[string]struct{} {
	if len(types) == 0 {
		return nil
	}
	filter := make(map[string]struct{}, len(types))
	for _, eventType := range types {
		filter[strings.TrimSpace(eventType)] = struct{}{}
	}
	return filter
}

// Subscription is one open stream. Events is closed when the stream ends.
type Subscription struct {
	userID    string
	events    chan Event
	cancel    context.CancelFunc
	done      chan struct{}
	filter    map[string]struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// UserID returns the subscribed user id.
func (s *Subscription) UserID() string {
	return s.userID
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Err returns the error that ended the stream, if any, once Events is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears down the connection and waits for the reader to exit. It is
// safe to call more than once.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
	})
	<-s.done
	return nil
}

func (s *Subscription) run(ctx context.Context, body io.ReadCloser) {
	defer close(s.done)
	defer close(s.events)
	defer body.Close()

	err := parse(body, func(event Event) bool {
		if s.filter != nil {
			if _, ok := s.filter[event.Type]; !ok {
				return true
			}
		}
		select {
		case s.events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("event stream ended user_id=%s err=%v", s.userID, err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

// parse reads an SSE stream and calls emit for every dispatched event until
// the stream ends or emit returns false.
func parse(r io.Reader, emit func(Event) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var (
		eventType string
		lastID    string
		data      strings.Builder
		hasData   bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if hasData {
				typ := eventType
				if typ == "" {
					typ = defaultEventType
				}
				if !emit(Event{Type: typ, ID: lastID, Data: []byte(data.String())}) {
					return nil
				}
			}
			eventType = ""
			data.Reset()
			hasData = false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				lastID = value
			}
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("read event stream: %w", err)
	}
	return ErrStreamClosed
}
