// Command highlights is the one-shot pipeline: sync the schedule into the
// store, fill missing media links, render the static pages, exit.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"nhl-highlights/internal/config"
	"nhl-highlights/internal/models"
	"nhl-highlights/internal/nhlapi"
	"nhl-highlights/internal/reconcile"
	"nhl-highlights/internal/render"
	"nhl-highlights/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "highlights",
		Usage: "Fetch NHL games, collect recap links, write static pages",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Sync the schedule, fill missing media, render pages",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output directory for rendered pages (default from OUTPUT_DIR)"},
					&cli.StringFlag{Name: "date", Usage: "Sync a single day (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "start-date", Usage: "Sync every day from this date through today (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "skip-render", Usage: "Skip writing pages after the sync"},
				},
				Action: runAction,
			},
			{
				Name:  "render",
				Usage: "Render pages from the store without calling the API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output directory for rendered pages (default from OUTPUT_DIR)"},
				},
				Action: renderAction,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func runAction(ctx context.Context, c *cli.Command) error {
	cfg := config.MustLoad()
	setupLogger(cfg)

	start, end, err := resolveRange(c.String("date"), c.String("start-date"), time.Now())
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	client := nhlapi.NewClient(cfg.NHLBaseURL, cfg.NHLTimeout)
	rec := reconcile.NewReconciler(client, client, db.Highlights, cfg.MediaWindowDays)

	if err := rec.SyncSchedule(ctx, start, end); err != nil {
		return err
	}

	if err := rec.FillMissingMedia(ctx, time.Now().UTC()); err != nil {
		return err
	}

	if c.Bool("skip-render") {
		log.Info().Msg("Run complete, render skipped")
		return nil
	}

	renderer, err := render.New(outDir(c, cfg), db.Highlights, db.Seasons)
	if err != nil {
		return err
	}
	if err := renderer.WriteSite(ctx, time.Now()); err != nil {
		return err
	}

	log.Info().Msg("Run complete")
	return nil
}

func renderAction(ctx context.Context, c *cli.Command) error {
	cfg := config.MustLoad()
	setupLogger(cfg)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	renderer, err := render.New(outDir(c, cfg), db.Highlights, db.Seasons)
	if err != nil {
		return err
	}
	if err := renderer.WriteSite(ctx, time.Now()); err != nil {
		return err
	}

	log.Info().Msg("Render complete")
	return nil
}

// resolveRange turns the flag pair into an inclusive sync range. At most one
// of date and startDate may be set; neither means today only.
func resolveRange(date, startDate string, now time.Time) (time.Time, time.Time, error) {
	today := now.UTC().Truncate(24 * time.Hour)

	if date != "" && startDate != "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--date and --start-date are mutually exclusive")
	}

	if date != "" {
		day, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date %q: %w", date, err)
		}
		return day, day, nil
	}

	if startDate != "" {
		day, err := time.Parse(models.DateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q: %w", startDate, err)
		}
		if day.After(today) {
			return time.Time{}, time.Time{}, fmt.Errorf("--start-date %s is in the future", startDate)
		}
		return day, today, nil
	}

	return today, today, nil
}

func outDir(c *cli.Command, cfg *config.Config) string {
	if dir := c.String("out"); dir != "" {
		return dir
	}
	return cfg.OutputDir
}

func openDatabase(ctx context.Context, cfg *config.Config) (*repository.Database, error) {
	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg *config.Config) {
	// Pretty console logging in development
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		level = parsedLevel
	}
	zerolog.SetGlobalLevel(level)
}
