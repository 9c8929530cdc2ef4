package domain

import (
	"errors"
	"testing"
)

func TestRegistry_Authorize_Grants(t *testing.T) {
	r := NewRegistry(true)

	cases := []struct {
		role string
		cap  Capability
		want error
	}{
		{RoleClient, CapThreadRead, nil},
		{RoleClient, CapThreadWrite, nil},
		{RoleClient, CapLeadRead, nil},
		{RoleClient, CapAccountSelf, nil},
		{RoleClient, CapLeadWrite, ErrForbidden},
		{RoleClient, CapThreadModerate, ErrForbidden},
		{RoleClient, CapAccountAdmin, ErrForbidden},

		{RoleConsultant, CapLeadWrite, nil},
		{RoleConsultant, CapThreadWrite, nil},
		{RoleConsultant, CapThreadModerate, ErrForbidden},
		{RoleConsultant, CapAccountAdmin, ErrForbidden},

		{RoleAdmin, CapAccountAdmin, nil},
		{RoleAdmin, CapThreadModerate, nil},
		{RoleAdmin, CapLeadWrite, nil},
	}

	for _, tc := range cases {
		id := Identity{AccountID: "acc_1", Role: tc.role}
		err := r.Authorize(id, tc.cap)
		if !errors.Is(err, tc.want) {
			t.Errorf("Authorize(%s, %s) = %v, want %v", tc.role, tc.cap, err, tc.want)
		}
	}
}

func TestRegistry_Authorize_Unauthenticated(t *testing.T) {
	r := NewRegistry(true)

	if err := r.Authorize(Identity{}, CapThreadRead); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("zero identity: got %v, want ErrUnauthenticated", err)
	}
	// Missing role is as anonymous as a missing subject.
	if err := r.Authorize(Identity{AccountID: "acc_1"}, CapThreadRead); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("identity without role: got %v, want ErrUnauthenticated", err)
	}
}

func TestRegistry_Authorize_UnknownCapability(t *testing.T) {
	r := NewRegistry(true)
	id := Identity{AccountID: "acc_1", Role: RoleAdmin}

	err := r.Authorize(id, Capability("thread:delete"))
	if !errors.Is(err, ErrUnknownCapability) {
		t.Fatalf("got %v, want ErrUnknownCapability", err)
	}
}

func TestRegistry_Authorize_UnknownRole(t *testing.T) {
	r := NewRegistry(true)
	id := Identity{AccountID: "acc_1", Role: "superuser"}

	if err := r.Authorize(id, CapThreadRead); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown role: got %v, want ErrForbidden", err)
	}
}

func TestRegistry_ModerationToggle(t *testing.T) {
	admin := Identity{AccountID: "adm_1", Role: RoleAdmin}

	with := NewRegistry(true)
	if err := with.Authorize(admin, CapThreadModerate); err != nil {
		t.Fatalf("moderation enabled: got %v, want nil", err)
	}

	without := NewRegistry(false)
	if err := without.Authorize(admin, CapThreadModerate); !errors.Is(err, ErrForbidden) {
		t.Fatalf("moderation disabled: got %v, want ErrForbidden", err)
	}
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry(true)

	if !r.Has(RoleAdmin, CapAccountAdmin) {
		t.Error("admin should hold account:admin")
	}
	if r.Has(RoleConsultant, CapAccountAdmin) {
		t.Error("consultant should not hold account:admin")
	}
	if r.Has("", CapThreadRead) {
		t.Error("empty role should hold nothing")
	}
}
