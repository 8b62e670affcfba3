package models

import (
	"database/sql"
	"time"
)

// DateLayout is the wire and storage format for game days.
const DateLayout = "2006-01-02"

// Highlight represents one game's row in the highlights table.
// GameID, Date, Home and Away are fixed at insert time; only the two
// media links change over the row's lifetime.
type Highlight struct {
	GameID   int64          `db:"game_id"`
	Date     time.Time      `db:"date"`
	Home     string         `db:"home"`
	Away     string         `db:"away"`
	Recap    sql.NullString `db:"recap"`
	Extended sql.NullString `db:"extended"`
}

// NewHighlight builds a schedule-only row with both media links absent.
func NewHighlight(gameID int64, date time.Time, home, away string) *Highlight {
	return &Highlight{
		GameID: gameID,
		Date:   date,
		Home:   home,
		Away:   away,
	}
}

// IsComplete returns true when both media links are present.
func (h *Highlight) IsComplete() bool {
	return h.Recap.Valid && h.Extended.Valid
}

// DateKey returns the game day in YYYY-MM-DD form.
func (h *Highlight) DateKey() string {
	return h.Date.Format(DateLayout)
}

// SetRecap stores a non-empty recap URL.
func (h *Highlight) SetRecap(url string) {
	if url != "" {
		h.Recap = sql.NullString{String: url, Valid: true}
	}
}

// SetExtended stores a non-empty extended highlights URL.
func (h *Highlight) SetExtended(url string) {
	if url != "" {
		h.Extended = sql.NullString{String: url, Valid: true}
	}
}
