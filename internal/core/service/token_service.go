package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// Denylist abstracts the revocation store (Redis). A revoked token id stays
// listed until the token would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and resolves HS256 JWTs carrying subject + role. The
// common resolve path is read-only; revocation adds one denylist lookup.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
	log      zerolog.Logger
	now      func() time.Time // mockable
}

func NewTokenService(secret string, ttl time.Duration, denylist Denylist, log zerolog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: denylist,
		log:      log,
		now:      time.Now,
	}
}

func (s *TokenService) Issue(_ context.Context, accountID, role string) (*ports.Session, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &ports.Session{Token: signed, Role: role, ExpiresAt: expiresAt}, nil
}

func (s *TokenService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail closed: an unreachable denylist must not let a possibly
		// revoked token through.
		s.log.Warn().Err(err).Msg("denylist lookup failed")
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	if revoked {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	return domain.Identity{
		AccountID: claims.Subject,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) Revoke(ctx context.Context, id domain.Identity) error {
	if id.TokenID == "" {
		return domain.ErrTokenInvalid
	}
	ttl := id.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// Already expired; nothing to deny.
		return nil
	}
	if err := s.denylist.Revoke(ctx, id.TokenID, ttl); err != nil {
		return err
	}
	s.log.Info().Str("account_id", id.AccountID).Msg("token revoked")
	return nil
}
