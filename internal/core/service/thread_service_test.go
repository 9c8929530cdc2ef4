package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubThreadRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Thread
	byPair   map[string]*domain.Thread
	messages map[string][]*domain.Message
	nextID   int
}

func newStubThreadRepo() *stubThreadRepo {
	return &stubThreadRepo{
		byID:     make(map[string]*domain.Thread),
		byPair:   make(map[string]*domain.Thread),
		messages: make(map[string][]*domain.Message),
	}
}

func cloneThread(t *domain.Thread) *domain.Thread {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func (r *stubThreadRepo) GetOrCreate(_ context.Context, clientID, consultantID string, now time.Time) (*domain.Thread, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := clientID + "|" + consultantID
	if existing, ok := r.byPair[key]; ok {
		return cloneThread(existing), false, nil
	}
	r.nextID++
	t := &domain.Thread{
		ID:           fmt.Sprintf("thr_%d", r.nextID),
		ClientID:     clientID,
		ConsultantID: consultantID,
		CreatedAt:    now,
		LastActivity: now,
	}
	r.byID[t.ID] = t
	r.byPair[key] = t
	return cloneThread(t), true, nil
}

func (r *stubThreadRepo) FindByID(_ context.Context, id string) (*domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return cloneThread(t), nil
}

func (r *stubThreadRepo) NextSeq(_ context.Context, threadID string, now time.Time) (int64, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[threadID]
	if !ok {
		return 0, time.Time{}, domain.ErrThreadNotFound
	}
	t.Seq++
	if now.After(t.LastActivity) {
		t.LastActivity = now
	}
	return t.Seq, t.LastActivity, nil
}

func (r *stubThreadRepo) InsertMessage(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *msg
	clone.ID = fmt.Sprintf("msg_%s_%d", msg.ThreadID, msg.Seq)
	r.messages[msg.ThreadID] = append(r.messages[msg.ThreadID], &clone)
	return nil
}

func (r *stubThreadRepo) ListMessages(_ context.Context, threadID string, afterSeq int64, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.messages[threadID] {
		if m.Seq > afterSeq {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubThreadRepo) ListForAccount(_ context.Context, accountID string) ([]*domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Thread
	for _, t := range r.byID {
		if t.Participant(accountID) {
			out = append(out, cloneThread(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

// stubRecorder captures events that would go to the async audit pipeline.
type stubRecorder struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (r *stubRecorder) Enqueue(event domain.ActivityEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *stubRecorder) kinds() []domain.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newThreadFixture() (*ThreadService, *stubThreadRepo, *stubAccountRepo, *stubRecorder) {
	threads := newStubThreadRepo()
	accounts := newStubAccountRepo()
	accounts.seed("cli_1", "client1@example.com", "password-one", domain.RoleClient)
	accounts.seed("cli_2", "client2@example.com", "password-two", domain.RoleClient)
	accounts.seed("con_1", "consultant1@example.com", "password-thr", domain.RoleConsultant)
	accounts.seed("adm_1", "admin1@example.com", "password-fou", domain.RoleAdmin)
	recorder := &stubRecorder{}
	svc := NewThreadService(threads, accounts, testRegistry(), recorder, discardLogger)
	return svc, threads, accounts, recorder
}

// ---------------------------------------------------------------------------
// Open tests
// ---------------------------------------------------------------------------

func TestThreadService_Open_CreatesOnFirstContact(t *testing.T) {
	svc, _, _, _ := newThreadFixture()

	thread, created, err := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first contact")
	}
	if thread.ClientID != "cli_1" || thread.ConsultantID != "con_1" {
		t.Errorf("pair mapped wrong: client=%s consultant=%s", thread.ClientID, thread.ConsultantID)
	}
}

func TestThreadService_Open_Idempotent(t *testing.T) {
	svc, repo, _, _ := newThreadFixture()

	first, _, err := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}

	// The consultant opening from the other side resolves to the same thread.
	second, created, err := svc.Open(context.Background(), consultantIdentity("con_1"), "cli_1")
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	if created {
		t.Error("expected created=false on repeat open")
	}
	if second.ID != first.ID {
		t.Errorf("repeat open returned a different thread: %s vs %s", second.ID, first.ID)
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected 1 stored thread, got %d", len(repo.byID))
	}
}

func TestThreadService_Open_ConcurrentFirstContact(t *testing.T) {
	svc, repo, _, _ := newThreadFixture()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := clientIdentity("cli_1")
			other := "con_1"
			if i%2 == 1 {
				actor = consultantIdentity("con_1")
				other = "cli_1"
			}
			thread, _, err := svc.Open(context.Background(), actor, other)
			if err != nil {
				t.Errorf("concurrent open failed: %v", err)
				return
			}
			ids[i] = thread.ID
		}(i)
	}
	wg.Wait()

	if len(repo.byID) != 1 {
		t.Fatalf("expected 1 stored thread, got %d", len(repo.byID))
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got thread %s, caller 0 got %s", i, ids[i], ids[0])
		}
	}
}

func TestThreadService_Open_SamePairOfRolesRejected(t *testing.T) {
	svc, _, _, _ := newThreadFixture()

	// client <-> client
	if _, _, err := svc.Open(context.Background(), clientIdentity("cli_1"), "cli_2"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("client pair: got %v, want ErrValidation", err)
	}
	// consultant <-> admin
	if _, _, err := svc.Open(context.Background(), consultantIdentity("con_1"), "adm_1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("consultant/admin pair: got %v, want ErrValidation", err)
	}
}

func TestThreadService_Open_UnknownOtherParty(t *testing.T) {
	svc, _, _, _ := newThreadFixture()

	if _, _, err := svc.Open(context.Background(), clientIdentity("cli_1"), "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("got %v, want ErrAccountNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Append tests
// ---------------------------------------------------------------------------

func TestThreadService_Append_OrdersMessages(t *testing.T) {
	svc, _, _, recorder := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")

	// Alternate senders; sequence positions must be dense and increasing.
	for i := 1; i <= 4; i++ {
		actor := clientIdentity("cli_1")
		if i%2 == 0 {
			actor = consultantIdentity("con_1")
		}
		msg, err := svc.Append(context.Background(), actor, thread.ID, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		if msg.Seq != int64(i) {
			t.Errorf("append %d: seq = %d, want %d", i, msg.Seq, i)
		}
	}

	for _, kind := range recorder.kinds() {
		if kind != domain.ActivityMessageSent {
			t.Errorf("unexpected activity kind: %s", kind)
		}
	}
	if len(recorder.kinds()) != 4 {
		t.Errorf("expected 4 recorded events, got %d", len(recorder.kinds()))
	}
}

func TestThreadService_Append_SentAtFollowsSeq(t *testing.T) {
	svc, repo, _, _ := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")

	first, err := svc.Append(context.Background(), clientIdentity("cli_1"), thread.ID, "fast sender")
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}

	// A concurrent sender already advanced the thread's clock past this
	// writer's wall time; the allocation must hand back the later timestamp
	// along with the higher seq.
	ahead := time.Now().Add(time.Minute).UTC()
	repo.mu.Lock()
	repo.byID[thread.ID].LastActivity = ahead
	repo.mu.Unlock()

	second, err := svc.Append(context.Background(), consultantIdentity("con_1"), thread.ID, "slow sender")
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if second.Seq != first.Seq+1 {
		t.Fatalf("seq = %d, want %d", second.Seq, first.Seq+1)
	}
	if second.SentAt.Before(first.SentAt) {
		t.Fatalf("sent_at regressed across seqs: %v then %v", first.SentAt, second.SentAt)
	}
	if !second.SentAt.Equal(ahead) {
		t.Fatalf("sent_at = %v, want the thread's advanced clock %v", second.SentAt, ahead)
	}

	// Listing by seq is therefore also listing by sent_at.
	page, err := svc.Messages(context.Background(), clientIdentity("cli_1"), thread.ID, 0, 10)
	if err != nil {
		t.Fatalf("Messages returned error: %v", err)
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i].SentAt.Before(page.Messages[i-1].SentAt) {
			t.Fatalf("message %d sent before its predecessor: %v < %v",
				i, page.Messages[i].SentAt, page.Messages[i-1].SentAt)
		}
	}
}

func TestThreadService_Append_NonParticipant(t *testing.T) {
	svc, _, _, _ := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")

	_, err := svc.Append(context.Background(), clientIdentity("cli_2"), thread.ID, "let me in")
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("got %v, want ErrNotParticipant", err)
	}
}

func TestThreadService_Append_AdminModeration(t *testing.T) {
	threads := newStubThreadRepo()
	accounts := newStubAccountRepo()
	accounts.seed("cli_1", "client1@example.com", "password-one", domain.RoleClient)
	accounts.seed("con_1", "consultant1@example.com", "password-two", domain.RoleConsultant)
	recorder := &stubRecorder{}

	// With moderation enabled the admin may post into any thread.
	svc := NewThreadService(threads, accounts, domain.NewRegistry(true), recorder, discardLogger)
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")
	if _, err := svc.Append(context.Background(), adminIdentity("adm_1"), thread.ID, "moderator note"); err != nil {
		t.Fatalf("moderation enabled: %v", err)
	}

	// With moderation disabled the same admin is an outsider.
	strictSvc := NewThreadService(threads, accounts, domain.NewRegistry(false), recorder, discardLogger)
	if _, err := strictSvc.Append(context.Background(), adminIdentity("adm_1"), thread.ID, "moderator note"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("moderation disabled: got %v, want ErrNotParticipant", err)
	}
}

func TestThreadService_Append_BodyValidation(t *testing.T) {
	svc, _, _, _ := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")

	if _, err := svc.Append(context.Background(), clientIdentity("cli_1"), thread.ID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank body: got %v, want ErrValidation", err)
	}
	huge := strings.Repeat("x", maxMessageBody+1)
	if _, err := svc.Append(context.Background(), clientIdentity("cli_1"), thread.ID, huge); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("oversized body: got %v, want ErrValidation", err)
	}
}

func TestThreadService_Append_UnknownThread(t *testing.T) {
	svc, _, _, _ := newThreadFixture()

	if _, err := svc.Append(context.Background(), clientIdentity("cli_1"), "thr_missing", "hello"); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("got %v, want ErrThreadNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Messages tests
// ---------------------------------------------------------------------------

func TestThreadService_Messages_CursorPagination(t *testing.T) {
	svc, _, _, _ := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")
	for i := 1; i <= 5; i++ {
		if _, err := svc.Append(context.Background(), clientIdentity("cli_1"), thread.ID, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	page, err := svc.Messages(context.Background(), clientIdentity("cli_1"), thread.ID, 0, 2)
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(page.Messages) != 2 || page.Messages[0].Seq != 1 || page.Messages[1].Seq != 2 {
		t.Fatalf("unexpected first page: %+v", page.Messages)
	}
	if page.NextCursor != 2 {
		t.Fatalf("NextCursor = %d, want 2", page.NextCursor)
	}

	page, err = svc.Messages(context.Background(), clientIdentity("cli_1"), thread.ID, page.NextCursor, 2)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(page.Messages) != 2 || page.Messages[0].Seq != 3 || page.Messages[1].Seq != 4 {
		t.Fatalf("unexpected second page: %+v", page.Messages)
	}

	// Past the end: empty page, zero cursor.
	page, err = svc.Messages(context.Background(), clientIdentity("cli_1"), thread.ID, 5, 2)
	if err != nil {
		t.Fatalf("final page failed: %v", err)
	}
	if len(page.Messages) != 0 || page.NextCursor != 0 {
		t.Fatalf("expected empty final page, got %d messages cursor %d", len(page.Messages), page.NextCursor)
	}
}

func TestThreadService_Messages_AccessControl(t *testing.T) {
	svc, _, _, _ := newThreadFixture()
	thread, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")

	if _, err := svc.Messages(context.Background(), clientIdentity("cli_2"), thread.ID, 0, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("outsider: got %v, want ErrForbidden", err)
	}
	// Admin oversight is read-only access to any thread.
	if _, err := svc.Messages(context.Background(), adminIdentity("adm_1"), thread.ID, 0, 10); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ThreadsFor tests
// ---------------------------------------------------------------------------

func TestThreadService_ThreadsFor_OrderedByActivity(t *testing.T) {
	svc, repo, accounts, _ := newThreadFixture()
	accounts.seed("con_2", "consultant2@example.com", "password-fiv", domain.RoleConsultant)

	older, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1")
	newer, _, _ := svc.Open(context.Background(), clientIdentity("cli_1"), "con_2")

	// Touch the first thread last so it bubbles to the top.
	repo.mu.Lock()
	repo.byID[newer.ID].LastActivity = time.Now().Add(-time.Hour)
	repo.byID[older.ID].LastActivity = time.Now()
	repo.mu.Unlock()

	summaries, err := svc.ThreadsFor(context.Background(), clientIdentity("cli_1"), "cli_1")
	if err != nil {
		t.Fatalf("ThreadsFor returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(summaries))
	}
	if summaries[0].Thread.ID != older.ID {
		t.Errorf("most recently active thread must come first, got %s", summaries[0].Thread.ID)
	}
	if summaries[0].OtherParty != "con_1" {
		t.Errorf("OtherParty = %q, want con_1", summaries[0].OtherParty)
	}
}

func TestThreadService_ThreadsFor_AccessControl(t *testing.T) {
	svc, _, _, _ := newThreadFixture()
	if _, _, err := svc.Open(context.Background(), clientIdentity("cli_1"), "con_1"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, err := svc.ThreadsFor(context.Background(), clientIdentity("cli_2"), "cli_1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other client: got %v, want ErrForbidden", err)
	}
	summaries, err := svc.ThreadsFor(context.Background(), adminIdentity("adm_1"), "cli_1")
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected 1 thread, got %d", len(summaries))
	}
}
