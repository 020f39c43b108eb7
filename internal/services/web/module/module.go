// Package module defines the feature contract used by web composition.
package module

import "net/http"

// Viewer contains chrome data for the signed-in visitor, if any.
type Viewer struct {
	UserID   string
	SignedIn bool
}

// ResolveViewer resolves chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// HealthReporter is an optional interface for modules whose gateway may be
// unavailable.
type HealthReporter interface {
	Healthy() bool
}
