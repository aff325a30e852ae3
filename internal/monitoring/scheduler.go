package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner deletes activity log entries older than a cutoff.
type EventPruner interface {
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionScheduler periodically prunes the activity log.
type RetentionScheduler struct {
	events    EventPruner
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewRetentionScheduler creates a scheduler that keeps events for retention
// and prunes on the given standard cron schedule.
func NewRetentionScheduler(events EventPruner, retention time.Duration, schedule string) (*RetentionScheduler, error) {
	s := &RetentionScheduler{
		events:    events,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.prune); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *RetentionScheduler) Start() {
	log.Info().Dur("retention", s.retention).Msg("Starting event retention scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped event retention scheduler.")
}

// PruneNow deletes every event older than the retention window.
func (s *RetentionScheduler) PruneNow(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.events.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return n, nil
}

func (s *RetentionScheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.PruneNow(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune events")
		return
	}
	log.Info().Int64("pruned", n).Msg("Scheduler: pruned old events")
}
