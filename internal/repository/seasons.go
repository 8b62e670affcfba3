package repository

import (
	"context"
	"fmt"

	"nhl-highlights/internal/models"

	"github.com/rs/zerolog/log"
)

// seedBeginYears are the seasons of the 31-team league the pages cover.
var seedBeginYears = []int{2017, 2018, 2019, 2020}

// SeasonRepository handles season reference data
type SeasonRepository struct {
	db *Database
}

// Seed inserts the static season rows. Rows that already exist are left
// untouched, so this is safe on every start.
func (r *SeasonRepository) Seed(ctx context.Context) error {
	query := `
		INSERT INTO seasons (name, begin_year, end_year)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`

	for _, year := range seedBeginYears {
		_, err := r.db.Pool.Exec(ctx, query, models.SeasonName(year), year, year+1)
		if err != nil {
			return fmt.Errorf("failed to seed season %d: %w", year, err)
		}
	}

	log.Debug().Int("count", len(seedBeginYears)).Msg("Seasons seeded")
	return nil
}

// List retrieves all seasons, most recent first
func (r *SeasonRepository) List(ctx context.Context) ([]models.Season, error) {
	query := `
		SELECT name, begin_year, end_year
		FROM seasons
		ORDER BY begin_year DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		var s models.Season
		if err := rows.Scan(&s.Name, &s.BeginYear, &s.EndYear); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}

	return seasons, nil
}
