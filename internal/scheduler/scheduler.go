// Package scheduler drives the ingestion pipeline: one initial load when the
// store is empty, then a fixed daily wall-clock trigger. At most one run is
// in flight at a time by construction.
package scheduler

import (
	"context"
	"time"

	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/logger"
	"github.com/guttosm/treasurypulse/internal/pipeline"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// Runner is the slice of the orchestrator the scheduler needs.
type Runner interface {
	Run(ctx context.Context, runType string) pipeline.Result
}

// Scheduler triggers pipeline runs on a daily schedule.
type Scheduler struct {
	repo   storage.AuctionsRepository
	runner Runner
	hour   int
	minute int

	// now is an indirection for trigger-time tests.
	now func() time.Time
}

// New builds a Scheduler firing daily at hour:minute UTC.
func New(repo storage.AuctionsRepository, runner Runner, hour, minute int) *Scheduler {
	return &Scheduler{
		repo:   repo,
		runner: runner,
		hour:   hour,
		minute: minute,
		now:    time.Now,
	}
}

// Start blocks until ctx is cancelled. An initial load runs immediately when
// the auctions table is empty; afterwards the pipeline runs once per day at
// the configured time.
func (s *Scheduler) Start(ctx context.Context) {
	s.initialLoad(ctx)

	for {
		next := nextRun(s.now().UTC(), s.hour, s.minute)
		wait := next.Sub(s.now().UTC())
		logger.L().Info().Time("next_run", next).Dur("wait", wait).Msg("scheduler sleeping until next trigger")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.L().Info().Msg("scheduler stopped")
			return
		case <-timer.C:
			result := s.runner.Run(ctx, models.RunTypeScheduled)
			logger.L().Info().Str("status", result.Status).Int("fetched", result.Fetched).Msg("scheduled run finished")
		}
	}
}

// initialLoad runs the pipeline once when the store has no auctions yet.
func (s *Scheduler) initialLoad(ctx context.Context) {
	count, err := s.repo.CountAuctions(ctx)
	if err != nil {
		logger.L().Error().Err(err).Msg("initial load check failed")
		return
	}
	if count > 0 {
		logger.L().Info().Int("auctions", count).Msg("store already populated, skipping initial load")
		return
	}
	logger.L().Info().Msg("store is empty, running initial load")
	result := s.runner.Run(ctx, models.RunTypeFull)
	logger.L().Info().Str("status", result.Status).Int("fetched", result.Fetched).Msg("initial load finished")
}

// nextRun returns the next occurrence of hour:minute strictly after now.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
