package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// readRetryDelay is the backoff before the single retry of a read.
const readRetryDelay = 50 * time.Millisecond

// readWithRetry runs a read-only repository operation and retries it exactly
// once after a short backoff when it fails transiently. Only reads go
// through here; a mutation that timed out may still have been applied, so
// mutations surface their first error.
func readWithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !isTransient(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return err
	case <-time.After(readRetryDelay):
	}
	return op(ctx)
}

// isTransient reports whether the error is worth one retry. Anything the
// driver classifies as a timeout or network failure qualifies; decode
// errors, missing documents and the like do not.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
