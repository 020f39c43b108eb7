// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreAPIRequest caps a single store REST API call made on behalf of a page.
const StoreAPIRequest = 5 * time.Second

// LiveWrite caps one websocket write to a browser in the live relay.
const LiveWrite = 10 * time.Second

// LivePing is the interval between websocket pings in the live relay.
const LivePing = 30 * time.Second

// StreamConnect caps how long an event stream subscription waits for the
// response headers.
const StreamConnect = 10 * time.Second
