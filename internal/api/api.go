// Package api exposes the dashboard core over HTTP. It is the
// presentation-layer collaborator: plain records in, JSON envelopes out.
package api

import (
	"subwaydash.nyc/internal/app"
)

// RestAPI bundles the handlers with their application dependencies.
type RestAPI struct {
	App *app.Application
}

// New creates the API surface over an application.
func New(application *app.Application) *RestAPI {
	return &RestAPI{App: application}
}
