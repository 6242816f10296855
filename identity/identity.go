package identity

import (
	"context"

	"github.com/ketabplus/frontend/domain"
)

// Service is the identity authority for the storefront. Implementations
// classify failures with the domain error codes: Unauthenticated for a
// normal missing session, InvalidCredentials for rejected logins, and
// Service for everything transient.
type Service interface {
	// Current returns the identity bound to the ambient session
	// credentials, or ErrCodeUnauthenticated when there is none.
	Current(ctx context.Context) (*domain.User, error)
	// Authenticate exchanges credentials for an identity and installs the
	// session credentials for subsequent calls.
	Authenticate(ctx context.Context, identifier, secret string) (*domain.User, error)
	// Invalidate tears down the remote session. Callers treat failures as
	// advisory; local logout proceeds regardless.
	Invalidate(ctx context.Context) error
	// Ping reports backend reachability for the connection monitor.
	Ping(ctx context.Context) error
}
