package ports

import (
	"context"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
)

// ActivityRepository persists audit-trail records.
type ActivityRepository interface {
	Insert(ctx context.Context, event *domain.ActivityEvent) error
}

// ActivityService processes one audit event (dispatcher worker side).
type ActivityService interface {
	Record(ctx context.Context, event domain.ActivityEvent) error
}

// ActivityRecorder is the producer side used by request-path services to
// hand events to the async pipeline without blocking.
type ActivityRecorder interface {
	Enqueue(event domain.ActivityEvent)
}
