package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

const minPasswordLength = 8

// dummyHash is compared against when the account does not exist, so the
// login latency profile matches the wrong-password path and account
// existence cannot be probed through timing.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AccountService implements registration, authentication and credential
// rotation. It is the only component that touches password hashes.
type AccountService struct {
	repo     ports.AccountRepository
	registry *domain.Registry
	log      zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, registry *domain.Registry, log zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, registry: registry, log: log}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if !domain.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}

	// Self-service sign-up covers clients and consultants; seeding an admin
	// account goes through the gate.
	if in.Role == domain.RoleAdmin {
		if err := s.registry.Authorize(in.Actor, domain.CapAccountAdmin); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Profile:      in.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", created.ID).Str("role", created.Role).Msg("account registered")
	return created, nil
}

// Authenticate verifies the credential pair. Unknown account and wrong
// password are indistinguishable to the caller: both return
// domain.ErrInvalidCredentials after a full-cost bcrypt comparison.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return account, nil
}

// RotatePassword replaces the stored credential with a freshly hashed value.
// The subject itself must present its current password; an account:admin
// actor may override without it.
func (s *AccountService) RotatePassword(ctx context.Context, in ports.RotatePasswordInput) error {
	if in.Actor.IsZero() {
		return domain.ErrUnauthenticated
	}
	if len(in.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	account, err := s.repo.FindByID(ctx, in.AccountID)
	if err != nil {
		return err
	}

	if in.Actor.AccountID == account.ID {
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return domain.ErrInvalidCredentials
		}
	} else if err := s.registry.Authorize(in.Actor, domain.CapAccountAdmin); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, account.ID, string(hash), time.Now().UTC()); err != nil {
		return err
	}

	s.log.Info().Str("account_id", account.ID).Str("actor_id", in.Actor.AccountID).Msg("credential rotated")
	return nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
