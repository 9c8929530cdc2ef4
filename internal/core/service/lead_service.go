package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// LeadService runs the lead status pipeline. Every mutation passes the
// authorization gate before touching state.
type LeadService struct {
	leads    ports.LeadRepository
	registry *domain.Registry
	recorder ports.ActivityRecorder
	log      zerolog.Logger
}

func NewLeadService(leads ports.LeadRepository, registry *domain.Registry, recorder ports.ActivityRecorder, log zerolog.Logger) *LeadService {
	return &LeadService{leads: leads, registry: registry, recorder: recorder, log: log}
}

func (s *LeadService) Create(ctx context.Context, actor domain.Identity, clientID string) (*domain.Lead, error) {
	if err := s.registry.Authorize(actor, domain.CapLeadWrite); err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	lead := &domain.Lead{
		ClientID:  clientID,
		Status:    domain.LeadNew,
		CreatedAt: now,
		UpdatedAt: now,
		History: []domain.LeadHistoryEntry{
			{Status: domain.LeadNew, ActorID: actor.AccountID, Timestamp: now},
		},
	}

	created, err := s.leads.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("lead_id", created.ID).Str("client_id", clientID).Msg("lead created")
	return created, nil
}

// Transition moves the lead along the status graph. A non-adjacent edge is
// rejected with ErrInvalidTransition no matter who asks.
func (s *LeadService) Transition(ctx context.Context, actor domain.Identity, leadID string, status domain.LeadStatus) (*domain.Lead, error) {
	if err := s.registry.Authorize(actor, domain.CapLeadWrite); err != nil {
		return nil, err
	}
	if !domain.ValidLeadStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !lead.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, lead.Status, status)
	}

	now := time.Now().UTC()
	entry := domain.LeadHistoryEntry{Status: status, ActorID: actor.AccountID, Timestamp: now}
	updated, err := s.leads.UpdateStatus(ctx, lead.ID, lead.Status, status, entry)
	if err != nil {
		return nil, err
	}

	s.recorder.Enqueue(domain.ActivityEvent{
		Kind:      domain.ActivityLeadTransition,
		EntityID:  lead.ID,
		ActorID:   actor.AccountID,
		Detail:    fmt.Sprintf("%s -> %s", lead.Status, status),
		Timestamp: now,
	})
	s.log.Info().Str("lead_id", lead.ID).Str("from", string(lead.Status)).Str("to", string(status)).Msg("lead transitioned")

	return updated, nil
}

// Reassign changes the assigned consultant; gated like a transition.
func (s *LeadService) Reassign(ctx context.Context, actor domain.Identity, leadID, consultantID string) (*domain.Lead, error) {
	if err := s.registry.Authorize(actor, domain.CapLeadWrite); err != nil {
		return nil, err
	}
	if consultantID == "" {
		return nil, fmt.Errorf("%w: assigned_consultant_id is required", domain.ErrValidation)
	}

	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.LeadHistoryEntry{
		Status:    lead.Status,
		ActorID:   actor.AccountID,
		Timestamp: now,
		Notes:     "reassigned to " + consultantID,
	}
	updated, err := s.leads.UpdateAssignee(ctx, lead.ID, consultantID, entry)
	if err != nil {
		return nil, err
	}

	s.recorder.Enqueue(domain.ActivityEvent{
		Kind:      domain.ActivityLeadReassigned,
		EntityID:  lead.ID,
		ActorID:   actor.AccountID,
		Detail:    consultantID,
		Timestamp: now,
	})

	return updated, nil
}

func (s *LeadService) Get(ctx context.Context, actor domain.Identity, leadID string) (*domain.Lead, error) {
	if err := s.registry.Authorize(actor, domain.CapLeadRead); err != nil {
		return nil, err
	}

	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !s.visible(actor, lead) {
		return nil, domain.ErrForbidden
	}
	return lead, nil
}

func (s *LeadService) List(ctx context.Context, actor domain.Identity) ([]*domain.Lead, error) {
	if err := s.registry.Authorize(actor, domain.CapLeadRead); err != nil {
		return nil, err
	}

	filter := ports.LeadFilter{}
	switch {
	case s.registry.Has(actor.Role, domain.CapAccountAdmin):
		// unscoped
	case actor.Role == domain.RoleConsultant:
		filter.ConsultantID = actor.AccountID
	default:
		filter.ClientID = actor.AccountID
	}
	return s.leads.List(ctx, filter)
}

func (s *LeadService) visible(actor domain.Identity, lead *domain.Lead) bool {
	if s.registry.Has(actor.Role, domain.CapAccountAdmin) {
		return true
	}
	switch actor.Role {
	case domain.RoleClient:
		return lead.ClientID == actor.AccountID
	case domain.RoleConsultant:
		return lead.AssignedConsultantID == actor.AccountID
	}
	return false
}
