package ports

import (
	"context"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// ThreadRepository defines persistence for threads and their messages.
type ThreadRepository interface {
	// GetOrCreate atomically resolves the unique thread for the
	// (clientID, consultantID) pair, inserting it when absent. Implemented
	// as insert-if-absent on a unique key, never read-then-write; concurrent
	// first contacts must resolve to one thread. The returned bool is true
	// when a new thread was created.
	GetOrCreate(ctx context.Context, clientID, consultantID string, now time.Time) (*domain.Thread, bool, error)

	FindByID(ctx context.Context, id string) (*domain.Thread, error)

	// NextSeq allocates the next message position for the thread together
	// with its sent-at timestamp. Both come out of one atomic update: the
	// returned time is the thread's last-activity marker after taking the
	// maximum of the stored value and now, so a writer that stalled before
	// allocation can never receive a higher seq with an earlier timestamp
	// than a faster concurrent writer. Seq order and sent-at order are
	// therefore the same order.
	NextSeq(ctx context.Context, threadID string, now time.Time) (int64, time.Time, error)

	InsertMessage(ctx context.Context, msg *domain.Message) error

	// ListMessages returns up to limit messages with seq > afterSeq in
	// ascending (sent_at, seq) order.
	ListMessages(ctx context.Context, threadID string, afterSeq int64, limit int) ([]*domain.Message, error)

	// ListForAccount returns every thread the account participates in,
	// ordered by last_activity descending.
	ListForAccount(ctx context.Context, accountID string) ([]*domain.Thread, error)
}
