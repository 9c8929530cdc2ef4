package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

type activityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService returns the audit-trail consumer invoked by the
// dispatcher workers.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, log: log}
}

// Record persists one audit event.
func (s *activityService) Record(ctx context.Context, event domain.ActivityEvent) error {
	if event.Kind == "" || event.EntityID == "" {
		return fmt.Errorf("%w: activity event missing kind or entity", domain.ErrValidation)
	}
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	s.log.Debug().
		Str("kind", string(event.Kind)).
		Str("entity_id", event.EntityID).
		Str("actor_id", event.ActorID).
		Msg("activity recorded")
	return nil
}
