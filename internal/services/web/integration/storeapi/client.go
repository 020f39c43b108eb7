// Package storeapi is the HTTP client for the store REST API user endpoints.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kscalelabs/storefront/internal/platform/requestctx"
	"github.com/kscalelabs/storefront/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	routeMe         = "/users/public/me"
	routePublicUser = "/users/public/{id}"
	routeUpdateMe   = "/users/me"
)

// Client calls the store API. The bearer token is taken from the request
// context (requestctx.WithAccessToken).
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tracer     trace.Tracer
	timeout    time.Duration
	me         singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTracer overrides the tracer used for client spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("store api base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("store api base url %q must be http or https", baseURL)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	c := &Client{
		baseURL:    parsed,
		httpClient: http.DefaultClient,
		tracer:     otel.Tracer("github.com/kscalelabs/storefront/storeapi"),
		timeout:    timeouts.StoreAPIRequest,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Me returns the user that owns the access token in ctx. Concurrent calls
// for the same token share one request.
func (c *Client) Me(ctx context.Context) (User, error) {
	token := requestctx.AccessTokenFromContext(ctx)
	if token == "" {
		return User{}, &Error{StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}
	}
	value, err, _ := c.me.Do(token, func() (any, error) {
		var user User
		err := c.do(context.WithoutCancel(ctx), http.MethodGet, routeMe, routeMe, nil, &user)
		return user, err
	})
	if err != nil {
		return User{}, err
	}
	return value.(User), nil
}

// PublicUser returns the public record of userID.
func (c *Client) PublicUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, &Error{StatusCode: http.StatusNotFound, Detail: "User not found"}
	}
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/public/"+url.PathEscape(userID), routePublicUser, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateMe applies update to the current user and returns the fields the
// backend reports back.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, routeUpdateMe, routeUpdateMe, update, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// do sends one request. path must already be escaped; route is the
// templated form used for span names.
func (c *Client) do(ctx context.Context, method string, path string, route string, in any, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "storeapi "+method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLPath(path),
			semconv.ServerAddress(c.baseURL.Hostname()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		payload, marshalErr := json.Marshal(in)
		if marshalErr != nil {
			return fmt.Errorf("encode %s body: %w", route, marshalErr)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := requestctx.AccessTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	return nil
}
