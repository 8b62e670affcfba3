// Package reconcile converges the local highlight store toward the remote
// schedule and media state. A run is two passes: schedule sync inserts rows
// for newly seen games, media fill queries content for rows still missing a
// link. Runs are single-threaded; at most one reconciler should run against
// a store at a time.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"nhl-highlights/internal/metrics"
	"nhl-highlights/internal/models"
	"nhl-highlights/internal/nhlapi"
	"nhl-highlights/internal/teams"

	"github.com/rs/zerolog/log"
)

// ScheduleSource provides the league schedule for an inclusive day range.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context, start, end time.Time) (*nhlapi.Schedule, error)
}

// ContentSource provides per-game media metadata.
type ContentSource interface {
	FetchGameContent(ctx context.Context, gameID int64) (*nhlapi.Content, error)
}

// Store is the slice of the highlight repository the reconciler needs.
type Store interface {
	Get(ctx context.Context, gameID int64) (*models.Highlight, error)
	Insert(ctx context.Context, h *models.Highlight) error
	Update(ctx context.Context, h *models.Highlight) error
	SelectMissing(ctx context.Context, reference time.Time, windowDays int) ([]*models.Highlight, error)
}

// Reconciler drives both passes against a store.
type Reconciler struct {
	schedule   ScheduleSource
	content    ContentSource
	store      Store
	windowDays int
}

// NewReconciler creates a reconciler. windowDays bounds how long a game is
// re-queried for missing media after its scheduled day.
func NewReconciler(schedule ScheduleSource, content ContentSource, store Store, windowDays int) *Reconciler {
	return &Reconciler{
		schedule:   schedule,
		content:    content,
		store:      store,
		windowDays: windowDays,
	}
}

// SyncSchedule fetches the schedule for [start, end] in one call and inserts
// a row for every game not yet in the store. Existing rows are never
// rewritten. A game with an unknown team id on either side is skipped whole.
// Each insert is durable before the next game is examined.
func (r *Reconciler) SyncSchedule(ctx context.Context, start, end time.Time) error {
	schedule, err := r.schedule.FetchSchedule(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	log.Info().
		Str("start", start.Format(models.DateLayout)).
		Str("end", end.Format(models.DateLayout)).
		Int("games", schedule.TotalGames).
		Msg("Schedule fetched")

	inserted := 0
	skipped := 0
	for _, day := range schedule.Dates {
		date, err := time.Parse(models.DateLayout, day.Date)
		if err != nil {
			log.Warn().
				Err(err).
				Str("date", day.Date).
				Msg("Unparseable schedule date, skipping day")
			skipped += len(day.Games)
			continue
		}

		for _, game := range day.Games {
			home, ok := teams.Lookup(game.Teams.Home.Team.ID)
			if !ok {
				log.Warn().
					Int64("team_id", game.Teams.Home.Team.ID).
					Int64("game_id", game.GamePk).
					Msg("Failed to find home team, skipping game")
				skipped++
				metrics.RecordGameSkipped()
				continue
			}

			away, ok := teams.Lookup(game.Teams.Away.Team.ID)
			if !ok {
				log.Warn().
					Int64("team_id", game.Teams.Away.Team.ID).
					Int64("game_id", game.GamePk).
					Msg("Failed to find away team, skipping game")
				skipped++
				metrics.RecordGameSkipped()
				continue
			}

			existing, err := r.store.Get(ctx, game.GamePk)
			if err != nil {
				return fmt.Errorf("failed to check for existing highlight: %w", err)
			}
			if existing != nil {
				// Identity columns never change after insert
				continue
			}

			h := models.NewHighlight(game.GamePk, date, home, away)
			if err := r.store.Insert(ctx, h); err != nil {
				return fmt.Errorf("failed to insert highlight: %w", err)
			}
			inserted++
			metrics.RecordGameInserted()

			log.Debug().
				Int64("game_id", h.GameID).
				Str("date", day.Date).
				Str("home", home).
				Str("away", away).
				Msg("Game inserted")
		}
	}

	log.Info().
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("Schedule sync complete")
	return nil
}

// FillMissingMedia queries content for every stored game that still lacks a
// media link and whose game day is within the window before now. A label
// present upstream fills its field; an absent or empty label leaves the
// field as it was. Rows whose content call fails are left for the next run;
// rows older than the window simply stop matching the query.
func (r *Reconciler) FillMissingMedia(ctx context.Context, now time.Time) error {
	missing, err := r.store.SelectMissing(ctx, now, r.windowDays)
	if err != nil {
		return fmt.Errorf("failed to select missing highlights: %w", err)
	}

	log.Info().Int("count", len(missing)).Msg("Games with missing media")

	filled := 0
	for _, h := range missing {
		content, err := r.content.FetchGameContent(ctx, h.GameID)
		if err != nil {
			if nhlapi.IsTransient(err) {
				log.Warn().
					Err(err).
					Int64("game_id", h.GameID).
					Msg("Transient content failure, will retry next run")
			} else {
				log.Error().
					Err(err).
					Int64("game_id", h.GameID).
					Msg("Content fetch failed, will retry next run")
			}
			metrics.RecordContentError()
			continue
		}

		hadRecap := h.Recap.Valid
		hadExtended := h.Extended.Valid

		if url, ok := content.PlaybackURL(nhlapi.TitleRecap); ok {
			h.SetRecap(url)
		}
		if url, ok := content.PlaybackURL(nhlapi.TitleExtended); ok {
			h.SetExtended(url)
		}

		if err := r.store.Update(ctx, h); err != nil {
			return fmt.Errorf("failed to update highlight: %w", err)
		}

		if !hadRecap && h.Recap.Valid {
			filled++
			metrics.RecordMediaFilled("recap")
		}
		if !hadExtended && h.Extended.Valid {
			filled++
			metrics.RecordMediaFilled("extended")
		}

		log.Debug().
			Int64("game_id", h.GameID).
			Bool("recap", h.Recap.Valid).
			Bool("extended", h.Extended.Valid).
			Msg("Highlight media updated")
	}

	log.Info().Int("links_filled", filled).Msg("Media fill complete")
	return nil
}

// Run executes one full pass: schedule sync for [start, end], then the
// media backfill evaluated against the wall clock.
func (r *Reconciler) Run(ctx context.Context, start, end time.Time) error {
	begin := time.Now()

	if err := r.SyncSchedule(ctx, start, end); err != nil {
		metrics.RecordSync("reconcile", "error", time.Since(begin).Seconds())
		return err
	}

	if err := r.FillMissingMedia(ctx, time.Now()); err != nil {
		metrics.RecordSync("reconcile", "error", time.Since(begin).Seconds())
		return err
	}

	metrics.RecordSync("reconcile", "success", time.Since(begin).Seconds())
	log.Info().Dur("duration", time.Since(begin)).Msg("Reconciliation run complete")
	return nil
}
