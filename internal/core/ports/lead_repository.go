package ports

import (
	"context"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// LeadFilter scopes lead listings. Empty fields mean no filter.
type LeadFilter struct {
	ClientID     string
	ConsultantID string
	Status       domain.LeadStatus
}

// LeadRepository defines persistence operations for leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	FindByID(ctx context.Context, id string) (*domain.Lead, error)

	// UpdateStatus atomically moves the lead from the expected current
	// status to the new one and appends the history entry. Returns
	// domain.ErrInvalidTransition when the stored status no longer matches
	// from (lost race with a concurrent transition).
	UpdateStatus(ctx context.Context, id string, from, to domain.LeadStatus, entry domain.LeadHistoryEntry) (*domain.Lead, error)

	UpdateAssignee(ctx context.Context, id, consultantID string, entry domain.LeadHistoryEntry) (*domain.Lead, error)

	List(ctx context.Context, filter LeadFilter) ([]*domain.Lead, error)
}
