package auth

import (
	"context"

	"github.com/drumline-app/drumline/internal/domain"
)

// SessionStore persists browser session records between requests. The cookie
// only ever carries the opaque session id; the principal snapshot lives
// server-side and expires with the store's TTL.
type SessionStore interface {
	// Get returns the principal for a session id, or
	// domain.ErrSessionNotFound when the session is absent or expired.
	Get(ctx context.Context, sessionID string) (domain.Principal, error)
	// Put stores the principal under a session id.
	Put(ctx context.Context, sessionID string, p domain.Principal) error
	// Delete removes a session (logout).
	Delete(ctx context.Context, sessionID string) error
}
