package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nhl-highlights/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// ErrDuplicateGame is returned by Insert when the game_id already exists.
// The sync pass checks existence first, so hitting this means two writers
// or a broken caller.
var ErrDuplicateGame = errors.New("highlight already exists")

const uniqueViolationCode = "23505"

// HighlightRepository handles highlight database operations
type HighlightRepository struct {
	db *Database
}

// Get retrieves a highlight by game id. Returns (nil, nil) when the game is
// not in the store.
func (r *HighlightRepository) Get(ctx context.Context, gameID int64) (*models.Highlight, error) {
	query := `
		SELECT game_id, date, home, away, recap, extended
		FROM highlights
		WHERE game_id = $1
	`

	var h models.Highlight
	err := r.db.Pool.QueryRow(ctx, query, gameID).Scan(
		&h.GameID, &h.Date, &h.Home, &h.Away, &h.Recap, &h.Extended,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get highlight: %w", err)
	}

	return &h, nil
}

// Insert creates a new highlight row. The row's identity columns never
// change after this.
func (r *HighlightRepository) Insert(ctx context.Context, h *models.Highlight) error {
	query := `
		INSERT INTO highlights (game_id, date, home, away, recap, extended)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		h.GameID, h.Date, h.Home, h.Away, h.Recap, h.Extended,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("game_id=%d: %w", h.GameID, ErrDuplicateGame)
		}
		return fmt.Errorf("failed to insert highlight: %w", err)
	}

	log.Debug().
		Int64("game_id", h.GameID).
		Str("date", h.DateKey()).
		Str("home", h.Home).
		Str("away", h.Away).
		Msg("Highlight inserted")

	return nil
}

// Update overwrites the stored row for h's game id. Updating a game that was
// never inserted is a silent no-op.
func (r *HighlightRepository) Update(ctx context.Context, h *models.Highlight) error {
	query := `
		UPDATE highlights
		SET date = $2, home = $3, away = $4, recap = $5, extended = $6
		WHERE game_id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		h.GameID, h.Date, h.Home, h.Away, h.Recap, h.Extended,
	)
	if err != nil {
		return fmt.Errorf("failed to update highlight: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug().Int64("game_id", h.GameID).Msg("Update matched no row")
	}

	return nil
}

// SelectMissing retrieves highlights still missing a media link whose game
// day is within windowDays before reference. A game dated exactly
// reference minus windowDays is included; one day older is not.
func (r *HighlightRepository) SelectMissing(ctx context.Context, reference time.Time, windowDays int) ([]*models.Highlight, error) {
	cutoff := reference.AddDate(0, 0, -windowDays)

	query := `
		SELECT game_id, date, home, away, recap, extended
		FROM highlights
		WHERE (recap IS NULL OR extended IS NULL)
		  AND date >= $1
		ORDER BY date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select missing highlights: %w", err)
	}
	defer rows.Close()

	highlights, err := scanHighlights(rows)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("count", len(highlights)).
		Str("cutoff", cutoff.Format(models.DateLayout)).
		Msg("Retrieved highlights with missing media")
	return highlights, nil
}

// SelectAll retrieves every stored highlight, newest game day first.
func (r *HighlightRepository) SelectAll(ctx context.Context) ([]*models.Highlight, error) {
	query := `
		SELECT game_id, date, home, away, recap, extended
		FROM highlights
		ORDER BY date DESC, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select highlights: %w", err)
	}
	defer rows.Close()

	return scanHighlights(rows)
}

// SelectByTeam retrieves every highlight in which the team played, on
// either side, newest game day first.
func (r *HighlightRepository) SelectByTeam(ctx context.Context, code string) ([]*models.Highlight, error) {
	query := `
		SELECT game_id, date, home, away, recap, extended
		FROM highlights
		WHERE home = $1 OR away = $1
		ORDER BY date DESC, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to select highlights by team: %w", err)
	}
	defer rows.Close()

	return scanHighlights(rows)
}

// Count returns the total number of stored highlights
func (r *HighlightRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM highlights`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count highlights: %w", err)
	}

	return count, nil
}

func scanHighlights(rows pgx.Rows) ([]*models.Highlight, error) {
	var highlights []*models.Highlight
	for rows.Next() {
		var h models.Highlight
		err := rows.Scan(&h.GameID, &h.Date, &h.Home, &h.Away, &h.Recap, &h.Extended)
		if err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		highlights = append(highlights, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating highlights: %w", err)
	}

	return highlights, nil
}
