package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

type stubActivityRepo struct {
	mu        sync.Mutex
	inserted  []domain.ActivityEvent
	insertErr error
}

func (r *stubActivityRepo) Insert(_ context.Context, event *domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, *event)
	return nil
}

func TestActivityService_Record(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, discardLogger)

	event := domain.ActivityEvent{
		Kind:      domain.ActivityMessageSent,
		EntityID:  "thr_1",
		ActorID:   "cli_1",
		Timestamp: time.Now().UTC(),
	}
	if err := svc.Record(context.Background(), event); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 inserted event, got %d", len(repo.inserted))
	}
	if repo.inserted[0].Kind != domain.ActivityMessageSent {
		t.Errorf("unexpected kind: %s", repo.inserted[0].Kind)
	}
}

func TestActivityService_Record_Invalid(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, discardLogger)

	err := svc.Record(context.Background(), domain.ActivityEvent{ActorID: "cli_1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("invalid event must not be inserted")
	}
}

func TestActivityService_Record_RepoError(t *testing.T) {
	repo := &stubActivityRepo{insertErr: errors.New("mongo down")}
	svc := NewActivityService(repo, discardLogger)

	event := domain.ActivityEvent{
		Kind:     domain.ActivityLogin,
		EntityID: "acc_1",
	}
	if err := svc.Record(context.Background(), event); err == nil {
		t.Fatal("expected error when repo fails, got nil")
	}
}
