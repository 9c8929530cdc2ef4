package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// recordingService captures processed events grouped by entity.
type recordingService struct {
	mu       sync.Mutex
	byEntity map[string][]string
	done     chan struct{}
	expect   int
	seen     int
}

func newRecordingService(expect int) *recordingService {
	return &recordingService{
		byEntity: make(map[string][]string),
		done:     make(chan struct{}),
		expect:   expect,
	}
}

func (s *recordingService) Record(_ context.Context, event domain.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEntity[event.EntityID] = append(s.byEntity[event.EntityID], event.Detail)
	s.seen++
	if s.seen == s.expect {
		close(s.done)
	}
	return nil
}

func TestDispatcher_PreservesPerEntityOrder(t *testing.T) {
	const perEntity = 50
	entities := []string{"thr_1", "thr_2", "lead_1"}
	svc := newRecordingService(perEntity * len(entities))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(3, svc, zerolog.Nop())
	d.Start(ctx)

	for i := 0; i < perEntity; i++ {
		for _, entity := range entities {
			d.Enqueue(domain.ActivityEvent{
				Kind:     domain.ActivityMessageSent,
				EntityID: entity,
				Detail:   fmt.Sprintf("%d", i),
			})
		}
	}

	select {
	case <-svc.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events to drain")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, entity := range entities {
		got := svc.byEntity[entity]
		if len(got) != perEntity {
			t.Fatalf("entity %s: got %d events, want %d", entity, len(got), perEntity)
		}
		for i, detail := range got {
			if detail != fmt.Sprintf("%d", i) {
				t.Fatalf("entity %s: event %d out of order: %s", entity, i, detail)
			}
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, newRecordingService(0), zerolog.Nop())

	for _, entity := range []string{"thr_1", "lead_42", "acc_9"} {
		first := d.shardIndex(entity)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(entity); got != first {
				t.Fatalf("shardIndex(%s) unstable: %d vs %d", entity, got, first)
			}
		}
		if first < 0 || first >= len(d.workers) {
			t.Fatalf("shardIndex(%s) out of range: %d", entity, first)
		}
	}
}
