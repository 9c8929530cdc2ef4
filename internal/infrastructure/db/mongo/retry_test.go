package mongo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReadWithRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := readWithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestReadWithRetry_SingleRetryOnly(t *testing.T) {
	calls := 0
	err := readWithRetry(context.Background(), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
	if calls != 2 {
		t.Fatalf("a persistent failure gets exactly one retry, got %d attempts", calls)
	}
}

func TestReadWithRetry_NonTransientNotRetried(t *testing.T) {
	sentinel := errors.New("document malformed")
	calls := 0
	err := readWithRetry(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want sentinel", err)
	}
	if calls != 1 {
		t.Fatalf("non-transient error must not be retried, got %d attempts", calls)
	}
}

func TestReadWithRetry_CancelledContextSkipsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	start := time.Now()
	err := readWithRetry(ctx, func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want the first attempt's error", err)
	}
	if calls != 1 {
		t.Fatalf("cancelled caller must not trigger the retry, got %d attempts", calls)
	}
	if time.Since(start) >= readRetryDelay {
		t.Fatal("cancelled caller must not wait out the backoff")
	}
}
