package domain

import "time"

// ActivityKind classifies an audit-trail entry.
type ActivityKind string

const (
	ActivityLogin          ActivityKind = "login"
	ActivityMessageSent    ActivityKind = "message_sent"
	ActivityLeadTransition ActivityKind = "lead_transition"
	ActivityLeadReassigned ActivityKind = "lead_reassigned"
)

// ActivityEvent is one audit-trail record. Events are written asynchronously
// off the request path; EntityID (thread id, lead id, account id) is the
// dispatcher sharding key so per-entity ordering is preserved.
type ActivityEvent struct {
	Kind      ActivityKind `json:"kind" bson:"kind"`
	EntityID  string       `json:"entity_id" bson:"entity_id"`
	ActorID   string       `json:"actor_id" bson:"actor_id"`
	Detail    string       `json:"detail,omitempty" bson:"detail,omitempty"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
}
