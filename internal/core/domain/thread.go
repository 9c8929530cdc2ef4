package domain

import "time"

// Thread is a conversation container between exactly one client and one
// consultant. The (client_id, consultant_id) pair maps to at most one thread;
// creation is an idempotent get-or-create. Threads are never deleted by
// normal operation.
type Thread struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	ClientID     string    `json:"client_id" bson:"client_id"`
	ConsultantID string    `json:"consultant_id" bson:"consultant_id"`
	// Seq is the per-thread message counter; the next message takes Seq+1.
	Seq          int64     `json:"-" bson:"seq"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	LastActivity time.Time `json:"last_activity" bson:"last_activity"`
}

// Participant reports whether the account is one of the thread's two parties.
func (t *Thread) Participant(accountID string) bool {
	return accountID == t.ClientID || accountID == t.ConsultantID
}

// OtherParty returns the participant that is not accountID, or "" when
// accountID is not a participant.
func (t *Thread) OtherParty(accountID string) string {
	switch accountID {
	case t.ClientID:
		return t.ConsultantID
	case t.ConsultantID:
		return t.ClientID
	}
	return ""
}

// Message is one append-only unit of communication inside a thread. Messages
// are strictly ordered by (sent_at, seq); Seq and SentAt are allocated
// together from the thread's persisted counter so concurrent senders never
// collide on an ordering key and the two orders never diverge.
type Message struct {
	ID       string    `json:"id" bson:"_id,omitempty"`
	ThreadID string    `json:"thread_id" bson:"thread_id"`
	SenderID string    `json:"sender_id" bson:"sender_id"`
	Seq      int64     `json:"seq" bson:"seq"`
	Body     string    `json:"body" bson:"body"`
	SentAt   time.Time `json:"sent_at" bson:"sent_at"`
}
