package ports

import (
	"context"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
	Profile  domain.Profile
	// Actor is the identity performing the registration; zero for
	// self-service sign-up. Creating an admin account requires account:admin.
	Actor domain.Identity
}

// RotatePasswordInput carries a credential rotation request. Rotation is the
// only sanctioned credential mutation path; the raw hash field is never
// written directly.
type RotatePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
	Actor           domain.Identity
}

// AccountService owns account lifecycle and the credential store.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	// Authenticate verifies email+password. A wrong password and an unknown
	// account both yield domain.ErrInvalidCredentials with matching latency.
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	RotatePassword(ctx context.Context, in RotatePasswordInput) error
	Get(ctx context.Context, id string) (*domain.Account, error)
}
