package ports

import (
	"context"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// ThreadSummary is the list view of a thread from one participant's side.
type ThreadSummary struct {
	Thread     *domain.Thread
	OtherParty string
}

// MessagePage is one page of a thread's message history. NextCursor resumes
// the listing without breaking ordering across pages; it is the last seq of
// the page, or 0 when the page is empty.
type MessagePage struct {
	Messages   []*domain.Message
	NextCursor int64
}

// ThreadService groups client/consultant communication into ordered,
// append-only threads.
type ThreadService interface {
	// Open resolves the unique thread between the actor and otherPartyID,
	// creating it lazily on first contact. Idempotent; the bool is true when
	// the thread was created by this call.
	Open(ctx context.Context, actor domain.Identity, otherPartyID string) (*domain.Thread, bool, error)

	// Append persists one message. The sender must be a thread participant
	// or hold thread:moderate.
	Append(ctx context.Context, actor domain.Identity, threadID, body string) (*domain.Message, error)

	// Messages lists a thread's messages in (sent_at, seq) order from an
	// optional resume cursor.
	Messages(ctx context.Context, actor domain.Identity, threadID string, cursor int64, limit int) (*MessagePage, error)

	// ThreadsFor lists accountID's threads by last activity descending.
	// Requires actor == accountID or account:admin.
	ThreadsFor(ctx context.Context, actor domain.Identity, accountID string) ([]ThreadSummary, error)
}
