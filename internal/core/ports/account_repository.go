package ports

import (
	"context"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts. Email
// uniqueness (case-insensitive) is enforced at write time by the store.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdatePasswordHash is the only write path for a credential. Callers
	// must pass an already-hashed value produced by the account service.
	UpdatePasswordHash(ctx context.Context, id, hash string, updatedAt time.Time) error
}
