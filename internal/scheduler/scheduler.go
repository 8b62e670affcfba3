// Package scheduler runs the reconcile and render pipeline on a cron
// schedule for the worker daemon.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"nhl-highlights/internal/config"
	"nhl-highlights/internal/reconcile"
	"nhl-highlights/internal/render"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler triggers reconciliation runs for the worker. Runs must not
// overlap: the store expects at most one reconciler at a time, so a tick
// that fires while the previous run is still going is skipped.
type Scheduler struct {
	cfg      *config.Config
	rec      *reconcile.Reconciler
	renderer *render.Renderer
	cron     *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, rec *reconcile.Reconciler, renderer *render.Renderer) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		rec:      rec,
		renderer: renderer,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.SyncCron, func() {
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.SyncCron).
		Msg("Sync job scheduled")

	return nil
}

// Stop stops the scheduler. A run already in progress finishes on its own.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	log.Info().Msg("Scheduler stopped")
}

// RunNow executes one pipeline run for today's schedule. Failures are
// logged, not fatal: the daemon retries on the next tick and unfinished
// games stay eligible for the media backfill.
func (s *Scheduler) RunNow(ctx context.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	if err := s.rec.Run(ctx, today, today); err != nil {
		log.Error().Err(err).Msg("Scheduled reconciliation failed")
		return
	}

	if err := s.renderer.WriteSite(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("Scheduled render failed")
	}
}
