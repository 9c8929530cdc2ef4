package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub denylist
// ---------------------------------------------------------------------------

type stubDenylist struct {
	mu        sync.Mutex
	revoked   map[string]time.Duration
	lookupErr error
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{revoked: make(map[string]time.Duration)}
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return false, d.lookupErr
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Issue / Resolve tests
// ---------------------------------------------------------------------------

func TestTokenService_IssueResolve_Roundtrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, newStubDenylist(), discardLogger)

	session, err := svc.Issue(context.Background(), "acc_1", domain.RoleConsultant)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected signed token")
	}
	if session.Role != domain.RoleConsultant {
		t.Errorf("unexpected session role: %s", session.Role)
	}

	identity, err := svc.Resolve(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if identity.AccountID != "acc_1" {
		t.Errorf("unexpected subject: %s", identity.AccountID)
	}
	if identity.Role != domain.RoleConsultant {
		t.Errorf("unexpected role: %s", identity.Role)
	}
	if identity.TokenID == "" {
		t.Error("expected token id claim")
	}
	if !identity.ExpiresAt.After(time.Now()) {
		t.Error("expected future expiry")
	}
}

func TestTokenService_Resolve_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, newStubDenylist(), discardLogger)

	session, err := svc.Issue(context.Background(), "acc_1", domain.RoleClient)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Move the clock past the TTL.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Resolve(context.Background(), session.Token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestTokenService_Resolve_Tampered(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, newStubDenylist(), discardLogger)

	session, _ := svc.Issue(context.Background(), "acc_1", domain.RoleClient)
	tampered := session.Token[:len(session.Token)-2] + "xx"

	if _, err := svc.Resolve(context.Background(), tampered); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
	if _, err := svc.Resolve(context.Background(), "not.a.jwt"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("garbage token: got %v, want ErrTokenInvalid", err)
	}
}

func TestTokenService_Resolve_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour, newStubDenylist(), discardLogger)
	verifier := NewTokenService("secret-b", time.Hour, newStubDenylist(), discardLogger)

	session, _ := issuer.Issue(context.Background(), "acc_1", domain.RoleClient)

	if _, err := verifier.Resolve(context.Background(), session.Token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

// ---------------------------------------------------------------------------
// Revocation tests
// ---------------------------------------------------------------------------

func TestTokenService_Revoke_ThenResolveFails(t *testing.T) {
	denylist := newStubDenylist()
	svc := NewTokenService("test-secret", time.Hour, denylist, discardLogger)

	session, _ := svc.Issue(context.Background(), "acc_1", domain.RoleClient)
	identity, err := svc.Resolve(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Resolve before revoke: %v", err)
	}

	if err := svc.Revoke(context.Background(), identity); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), session.Token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid after revoke", err)
	}

	// The denylist entry does not outlive the token's own lifetime.
	ttl := denylist.revoked[identity.TokenID]
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("denylist ttl out of range: %v", ttl)
	}
}

func TestTokenService_Revoke_ExpiredIsNoop(t *testing.T) {
	denylist := newStubDenylist()
	svc := NewTokenService("test-secret", time.Hour, denylist, discardLogger)

	identity := domain.Identity{
		AccountID: "acc_1",
		Role:      domain.RoleClient,
		TokenID:   "tok_expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := svc.Revoke(context.Background(), identity); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if len(denylist.revoked) != 0 {
		t.Error("expired token must not be added to the denylist")
	}
}

func TestTokenService_Revoke_MissingTokenID(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, newStubDenylist(), discardLogger)

	err := svc.Revoke(context.Background(), domain.Identity{AccountID: "acc_1", Role: domain.RoleClient})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestTokenService_Resolve_DenylistErrorFailsClosed(t *testing.T) {
	denylist := newStubDenylist()
	svc := NewTokenService("test-secret", time.Hour, denylist, discardLogger)

	session, _ := svc.Issue(context.Background(), "acc_1", domain.RoleClient)
	denylist.lookupErr = errors.New("redis down")

	if _, err := svc.Resolve(context.Background(), session.Token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid when denylist is unreachable", err)
	}
}
