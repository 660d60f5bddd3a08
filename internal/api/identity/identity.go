// Package identity resolves the stable caller identity behind a request.
// The auth provider is an external collaborator: it supplies an identity or
// nothing, and resolution never blocks or fails a request. Anonymous
// callers simply resolve to the empty identity and fall through to the
// default tier.
package identity

import "net/http"

// Resolver maps an incoming request to a caller identity. The empty string
// means anonymous.
type Resolver interface {
	Resolve(r *http.Request) string
}

// Static always resolves to a fixed identity. Useful in tests and for
// single-tenant deployments.
type Static string

func (s Static) Resolve(*http.Request) string { return string(s) }

// Anonymous resolves everything to the empty identity.
var Anonymous Resolver = Static("")
