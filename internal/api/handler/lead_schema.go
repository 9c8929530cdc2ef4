package handler

import (
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

type createLeadRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

// patchLeadRequest mutates either the status or the assigned consultant.
// Exactly one of the two must be set.
type patchLeadRequest struct {
	Status               string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted lost"`
	AssignedConsultantID string `json:"assigned_consultant_id,omitempty"`
}

type leadHistoryResponse struct {
	Status    string    `json:"status"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type leadResponse struct {
	ID                   string                `json:"id"`
	ClientID             string                `json:"client_id"`
	AssignedConsultantID string                `json:"assigned_consultant_id,omitempty"`
	Status               string                `json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	History              []leadHistoryResponse `json:"history"`
}

func toLeadResponse(l *domain.Lead) leadResponse {
	resp := leadResponse{
		ID:                   l.ID,
		ClientID:             l.ClientID,
		AssignedConsultantID: l.AssignedConsultantID,
		Status:               string(l.Status),
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
		History:              make([]leadHistoryResponse, 0, len(l.History)),
	}
	for _, h := range l.History {
		resp.History = append(resp.History, leadHistoryResponse{
			Status:    string(h.Status),
			ActorID:   h.ActorID,
			Timestamp: h.Timestamp,
			Notes:     h.Notes,
		})
	}
	return resp
}
