package ports

import (
	"context"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// LeadService runs the lead status pipeline. All mutations pass the
// authorization gate; the owning client may only read.
type LeadService interface {
	Create(ctx context.Context, actor domain.Identity, clientID string) (*domain.Lead, error)

	// Transition moves the lead along the status graph. A non-adjacent edge
	// is rejected with domain.ErrInvalidTransition regardless of role.
	Transition(ctx context.Context, actor domain.Identity, leadID string, status domain.LeadStatus) (*domain.Lead, error)

	// Reassign changes the assigned consultant; gated like a transition.
	Reassign(ctx context.Context, actor domain.Identity, leadID, consultantID string) (*domain.Lead, error)

	Get(ctx context.Context, actor domain.Identity, leadID string) (*domain.Lead, error)

	// List returns leads visible to the actor: clients see their own,
	// consultants their assignments, admins everything.
	List(ctx context.Context, actor domain.Identity) ([]*domain.Lead, error)
}
