// Package render writes the static pages and the JSON export from stored
// highlights. It only reads the store.
package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"nhl-highlights/internal/metrics"
	"nhl-highlights/internal/models"
	"nhl-highlights/internal/teams"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Source is the slice of the store the renderer reads.
type Source interface {
	SelectAll(ctx context.Context) ([]*models.Highlight, error)
	SelectByTeam(ctx context.Context, code string) ([]*models.Highlight, error)
}

// SeasonSource lists the season reference rows.
type SeasonSource interface {
	List(ctx context.Context) ([]models.Season, error)
}

// Page is the data behind one rendered HTML page.
type Page struct {
	Team        string // empty on the all-games page
	Days        []Day
	Divisions   []teams.Division
	Seasons     []models.Season
	GeneratedAt time.Time
	Root        string // relative path prefix back to the output root
}

// Day is one game day's group of highlights, newest day first in a Page.
type Day struct {
	Date  time.Time
	Games []*models.Highlight
}

// Renderer writes the static site into an output directory.
type Renderer struct {
	outDir  string
	source  Source
	seasons SeasonSource
	tmpl    *template.Template
}

// New parses the embedded templates and returns a renderer targeting outDir.
func New(outDir string, source Source, seasons SeasonSource) (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Monday, January 2 2006")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		outDir:  outDir,
		source:  source,
		seasons: seasons,
		tmpl:    tmpl,
	}, nil
}

// WriteSite renders the all-games page, one page per team, and the JSON
// export. now becomes the pages' generation stamp.
func (r *Renderer) WriteSite(ctx context.Context, now time.Time) error {
	all, err := r.source.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load highlights for rendering: %w", err)
	}

	seasons, err := r.seasons.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seasons for rendering: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(r.outDir, "teams"), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := 0

	index := Page{
		Days:        buildDays(all),
		Divisions:   teams.Divisions(),
		Seasons:     seasons,
		GeneratedAt: now,
		Root:        ".",
	}
	if err := r.writePage(filepath.Join(r.outDir, "index.html"), index); err != nil {
		return err
	}
	pages++

	for _, code := range teams.Codes() {
		rows, err := r.source.SelectByTeam(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to load highlights for team %s: %w", code, err)
		}

		page := Page{
			Team:        code,
			Days:        buildDays(rows),
			Divisions:   teams.Divisions(),
			Seasons:     seasons,
			GeneratedAt: now,
			Root:        "..",
		}
		path := filepath.Join(r.outDir, "teams", code+".html")
		if err := r.writePage(path, page); err != nil {
			return err
		}
		pages++
	}

	if err := r.writeJSON(filepath.Join(r.outDir, "hockey.json"), all); err != nil {
		return err
	}

	metrics.UpdateRenderStats(pages)
	log.Info().
		Int("pages", pages).
		Str("dir", r.outDir).
		Msg("Site rendered")
	return nil
}

// writePage executes the page template into memory first so a template
// error never leaves a truncated file behind.
func (r *Renderer) writePage(path string, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// jsonGame is the export shape of one stored highlight.
type jsonGame struct {
	GameID   int64   `json:"game_id"`
	Date     string  `json:"date"`
	Home     string  `json:"home"`
	Away     string  `json:"away"`
	Recap    *string `json:"recap"`
	Extended *string `json:"extended"`
}

func (r *Renderer) writeJSON(path string, highlights []*models.Highlight) error {
	games := make([]jsonGame, 0, len(highlights))
	for _, h := range highlights {
		g := jsonGame{
			GameID: h.GameID,
			Date:   h.DateKey(),
			Home:   h.Home,
			Away:   h.Away,
		}
		if h.Recap.Valid {
			url := h.Recap.String
			g.Recap = &url
		}
		if h.Extended.Valid {
			url := h.Extended.String
			g.Extended = &url
		}
		games = append(games, g)
	}

	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal highlight export: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// buildDays groups highlights into per-day buckets, preserving the store's
// ordering within and across days.
func buildDays(highlights []*models.Highlight) []Day {
	var days []Day
	for _, h := range highlights {
		if n := len(days); n > 0 && days[n-1].Date.Equal(h.Date) {
			days[n-1].Games = append(days[n-1].Games, h)
			continue
		}
		days = append(days, Day{Date: h.Date, Games: []*models.Highlight{h}})
	}
	return days
}
