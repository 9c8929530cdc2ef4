package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

const (
	maxMessageBody      = 8 * 1024
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

// ThreadService organizes client/consultant communication into ordered
// append-only threads.
type ThreadService struct {
	threads  ports.ThreadRepository
	accounts ports.AccountRepository
	registry *domain.Registry
	recorder ports.ActivityRecorder
	log      zerolog.Logger
}

func NewThreadService(
	threads ports.ThreadRepository,
	accounts ports.AccountRepository,
	registry *domain.Registry,
	recorder ports.ActivityRecorder,
	log zerolog.Logger,
) *ThreadService {
	return &ThreadService{threads: threads, accounts: accounts, registry: registry, recorder: recorder, log: log}
}

// Open resolves the unique thread between the actor and the other party,
// creating it on first contact. Concurrent first contacts for the same pair
// resolve to the same thread (atomic insert-if-absent in the repository).
func (s *ThreadService) Open(ctx context.Context, actor domain.Identity, otherPartyID string) (*domain.Thread, bool, error) {
	if err := s.registry.Authorize(actor, domain.CapThreadWrite); err != nil {
		return nil, false, err
	}

	other, err := s.accounts.FindByID(ctx, otherPartyID)
	if err != nil {
		return nil, false, err
	}

	clientID, consultantID, err := orderPair(actor.Role, actor.AccountID, other.Role, other.ID)
	if err != nil {
		return nil, false, err
	}

	thread, created, err := s.threads.GetOrCreate(ctx, clientID, consultantID, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info().Str("thread_id", thread.ID).Str("client_id", clientID).Str("consultant_id", consultantID).Msg("thread created")
	}
	return thread, created, nil
}

// orderPair maps the two parties onto the (client, consultant) key. A thread
// always joins exactly one client and one consultant.
func orderPair(actorRole, actorID, otherRole, otherID string) (clientID, consultantID string, err error) {
	switch {
	case actorRole == domain.RoleClient && otherRole == domain.RoleConsultant:
		return actorID, otherID, nil
	case actorRole == domain.RoleConsultant && otherRole == domain.RoleClient:
		return otherID, actorID, nil
	}
	return "", "", fmt.Errorf("%w: a thread joins one client and one consultant", domain.ErrValidation)
}

// Append persists one message and advances the thread's activity marker.
// The ordering position comes from the thread's persisted counter, so two
// concurrent senders never collide on the same key.
func (s *ThreadService) Append(ctx context.Context, actor domain.Identity, threadID, body string) (*domain.Message, error) {
	if err := s.registry.Authorize(actor, domain.CapThreadWrite); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxMessageBody {
		return nil, fmt.Errorf("%w: message body must be 1-%d bytes", domain.ErrValidation, maxMessageBody)
	}

	thread, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.Participant(actor.AccountID) {
		if err := s.registry.Authorize(actor, domain.CapThreadModerate); err != nil {
			return nil, domain.ErrNotParticipant
		}
	}

	// The timestamp comes back from the same atomic step that allocates the
	// position, so a sender that stalls here cannot stamp an earlier time
	// onto a later seq.
	seq, sentAt, err := s.threads.NextSeq(ctx, thread.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ThreadID: thread.ID,
		SenderID: actor.AccountID,
		Seq:      seq,
		Body:     body,
		SentAt:   sentAt,
	}
	if err := s.threads.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.recorder.Enqueue(domain.ActivityEvent{
		Kind:      domain.ActivityMessageSent,
		EntityID:  thread.ID,
		ActorID:   actor.AccountID,
		Timestamp: sentAt,
	})

	return msg, nil
}

// Messages lists a thread's history in (sent_at, seq) order from the cursor.
func (s *ThreadService) Messages(ctx context.Context, actor domain.Identity, threadID string, cursor int64, limit int) (*ports.MessagePage, error) {
	if err := s.registry.Authorize(actor, domain.CapThreadRead); err != nil {
		return nil, err
	}

	thread, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.Participant(actor.AccountID) && !s.registry.Has(actor.Role, domain.CapAccountAdmin) {
		return nil, domain.ErrForbidden
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	msgs, err := s.threads.ListMessages(ctx, thread.ID, cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &ports.MessagePage{Messages: msgs}
	if len(msgs) > 0 {
		page.NextCursor = msgs[len(msgs)-1].Seq
	}
	return page, nil
}

// ThreadsFor lists accountID's threads, most recently active first.
func (s *ThreadService) ThreadsFor(ctx context.Context, actor domain.Identity, accountID string) ([]ports.ThreadSummary, error) {
	if err := s.registry.Authorize(actor, domain.CapThreadRead); err != nil {
		return nil, err
	}
	if actor.AccountID != accountID && !s.registry.Has(actor.Role, domain.CapAccountAdmin) {
		return nil, domain.ErrForbidden
	}

	threads, err := s.threads.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		summaries = append(summaries, ports.ThreadSummary{Thread: t, OtherParty: t.OtherParty(accountID)})
	}
	return summaries, nil
}
