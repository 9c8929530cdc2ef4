package ports

import (
	"context"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// Session is the issued proof of identity returned at login.
type Session struct {
	Token     string
	Role      string
	ExpiresAt time.Time
}

// TokenService issues, resolves and revokes identity tokens. Subject and
// role are immutable once issued; renewal means issuing a new token.
type TokenService interface {
	Issue(ctx context.Context, accountID, role string) (*Session, error)
	// Resolve validates the token and returns the identity it carries.
	// Returns domain.ErrTokenExpired past the TTL and domain.ErrTokenInvalid
	// for a malformed, tampered or revoked token.
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	// Revoke invalidates the identity's token before natural expiry.
	Revoke(ctx context.Context, id domain.Identity) error
}
