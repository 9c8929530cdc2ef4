package domain

import "time"

// LeadStatus represents the funnel state of a lead.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// leadTransitions defines the allowed state machine edges. Progression is
// monotonic except for the explicit reopen edge lost -> new.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadNew:       {LeadContacted, LeadLost},
	LeadContacted: {LeadQualified, LeadLost},
	LeadQualified: {LeadConverted, LeadLost},
	LeadLost:      {LeadNew},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidLeadStatus reports whether s is part of the status enumeration.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost:
		return true
	}
	return false
}

// LeadHistoryEntry records a single status transition on a lead.
type LeadHistoryEntry struct {
	Status    LeadStatus `json:"status" bson:"status"`
	ActorID   string     `json:"actor_id" bson:"actor_id"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Lead is a prospective client's position in the funnel. Owned by one client,
// optionally assigned to one consultant. Only lead:write roles may mutate it;
// the owning client reads it.
type Lead struct {
	ID                   string             `json:"id" bson:"_id,omitempty"`
	ClientID             string             `json:"client_id" bson:"client_id"`
	AssignedConsultantID string             `json:"assigned_consultant_id,omitempty" bson:"assigned_consultant_id,omitempty"`
	Status               LeadStatus         `json:"status" bson:"status"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
	History              []LeadHistoryEntry `json:"history" bson:"history"`
}
