package domain

import "time"

// Capability is a named permission granted to one or more roles.
type Capability string

const (
	CapThreadRead     Capability = "thread:read"
	CapThreadWrite    Capability = "thread:write"
	CapThreadModerate Capability = "thread:moderate"
	CapLeadRead       Capability = "lead:read"
	CapLeadWrite      Capability = "lead:write"
	CapAccountSelf    Capability = "account:self"
	CapAccountAdmin   Capability = "account:admin"
)

// Identity is the resolved (subject, role) pair derived from a validated
// token. Role is captured at issuance and is not re-derived while the token
// lives; a role change only takes effect on tokens issued afterwards.
type Identity struct {
	AccountID string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// IsZero reports whether the identity carries no authenticated subject.
func (id Identity) IsZero() bool {
	return id.AccountID == "" || id.Role == ""
}

// Registry is the fixed role -> capability-set mapping. It is the single
// authorization enforcement point; no other component may re-implement role
// checks. Presentation-layer role hints are never a security boundary.
type Registry struct {
	grants map[string]map[Capability]struct{}
	known  map[Capability]struct{}
}

// NewRegistry builds the registry for the fixed role enumeration.
// adminModeration controls whether the admin role may post into
// client/consultant threads (thread:moderate).
func NewRegistry(adminModeration bool) *Registry {
	clientCaps := []Capability{CapThreadRead, CapThreadWrite, CapLeadRead, CapAccountSelf}
	consultantCaps := append([]Capability{CapLeadWrite}, clientCaps...)
	adminCaps := append([]Capability{CapAccountAdmin}, consultantCaps...)
	if adminModeration {
		adminCaps = append(adminCaps, CapThreadModerate)
	}

	r := &Registry{
		grants: make(map[string]map[Capability]struct{}, 3),
		known:  make(map[Capability]struct{}),
	}
	for _, cap := range []Capability{
		CapThreadRead, CapThreadWrite, CapThreadModerate,
		CapLeadRead, CapLeadWrite, CapAccountSelf, CapAccountAdmin,
	} {
		r.known[cap] = struct{}{}
	}
	r.grant(RoleClient, clientCaps)
	r.grant(RoleConsultant, consultantCaps)
	r.grant(RoleAdmin, adminCaps)
	return r
}

func (r *Registry) grant(role string, caps []Capability) {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	r.grants[role] = set
}

// Authorize checks the identity's role against the required capability.
// Returns ErrUnauthenticated for a missing/expired identity, ErrForbidden for
// a valid identity with an insufficient role, and ErrUnknownCapability for a
// capability that was never registered (programmer error, denied).
func (r *Registry) Authorize(id Identity, required Capability) error {
	if _, ok := r.known[required]; !ok {
		return ErrUnknownCapability
	}
	if id.IsZero() {
		return ErrUnauthenticated
	}
	if _, ok := r.grants[id.Role][required]; !ok {
		return ErrForbidden
	}
	return nil
}

// Has reports whether the role holds the capability, without the
// authentication check. Used for conditional scoping (e.g. admin list views).
func (r *Registry) Has(role string, cap Capability) bool {
	_, ok := r.grants[role][cap]
	return ok
}
