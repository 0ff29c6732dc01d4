// Package store defines the persistence contracts the auth core consumes.
// The core never persists anything itself; it hands revoked token IDs and
// sealed signing secrets to whichever driver is wired in.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// Blacklist is the revocation store contract. Entries must expire on
// their own once the TTL elapses: a jti only needs to stay listed for as
// long as the token it names could still verify.
//
// Both methods honour context cancellation. A store error or timeout is
// surfaced to the caller, who fails closed.
type Blacklist interface {
	// Add lists a token ID for the remaining lifetime of the token.
	// A zero TTL still lists the entry briefly; the token is already
	// expired and the listing is belt-and-braces.
	Add(ctx context.Context, jti string, ttl time.Duration) error

	// Has reports whether a token ID is currently listed.
	Has(ctx context.Context, jti string) (bool, error)
}

// SigningSecrets persists sealed (encrypted-at-rest) signing secrets per
// category so tokens can survive a service restart. Only the persistent
// key mode uses this; ephemeral mode never touches it.
type SigningSecrets interface {
	// Get returns the sealed secret for a category, ErrNotFound if the
	// category has never been stored.
	Get(ctx context.Context, category string) ([]byte, error)

	// Put stores or replaces the sealed secret for a category.
	Put(ctx context.Context, category string, sealed []byte) error
}
