package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"nhl-highlights/internal/models"
	"nhl-highlights/internal/nhlapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchedule struct {
	schedule *nhlapi.Schedule
	err      error
	calls    int
}

func (f *fakeSchedule) FetchSchedule(ctx context.Context, start, end time.Time) (*nhlapi.Schedule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.schedule, nil
}

type fakeContent struct {
	content map[int64]*nhlapi.Content
	errs    map[int64]error
	calls   map[int64]int
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		content: make(map[int64]*nhlapi.Content),
		errs:    make(map[int64]error),
		calls:   make(map[int64]int),
	}
}

func (f *fakeContent) FetchGameContent(ctx context.Context, gameID int64) (*nhlapi.Content, error) {
	f.calls[gameID]++
	if err := f.errs[gameID]; err != nil {
		return nil, err
	}
	if c, ok := f.content[gameID]; ok {
		return c, nil
	}
	return &nhlapi.Content{}, nil
}

// memStore mirrors the highlight repository contract, including the
// read-time window predicate of SelectMissing.
type memStore struct {
	rows      map[int64]*models.Highlight
	inserts   int
	updates   int
	getErr    error
	insertErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]*models.Highlight)}
}

func (s *memStore) Get(ctx context.Context, gameID int64) (*models.Highlight, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	h, ok := s.rows[gameID]
	if !ok {
		return nil, nil
	}
	clone := *h
	return &clone, nil
}

func (s *memStore) Insert(ctx context.Context, h *models.Highlight) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.rows[h.GameID]; ok {
		return fmt.Errorf("game_id=%d already present", h.GameID)
	}
	clone := *h
	s.rows[h.GameID] = &clone
	s.inserts++
	return nil
}

func (s *memStore) Update(ctx context.Context, h *models.Highlight) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.rows[h.GameID]; !ok {
		return nil
	}
	clone := *h
	s.rows[h.GameID] = &clone
	s.updates++
	return nil
}

func (s *memStore) SelectMissing(ctx context.Context, reference time.Time, windowDays int) ([]*models.Highlight, error) {
	cutoff := reference.AddDate(0, 0, -windowDays)
	var out []*models.Highlight
	for _, h := range s.rows {
		if h.IsComplete() || h.Date.Before(cutoff) {
			continue
		}
		clone := *h
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].GameID < out[j].GameID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func scheduleDay(day string, games ...nhlapi.ScheduleGame) *nhlapi.Schedule {
	return &nhlapi.Schedule{
		TotalGames: len(games),
		Dates:      []nhlapi.ScheduleDate{{Date: day, Games: games}},
	}
}

func scheduleGame(id, homeID, awayID int64) nhlapi.ScheduleGame {
	return nhlapi.ScheduleGame{
		GamePk: id,
		Teams: nhlapi.GameTeams{
			Home: nhlapi.TeamSide{Team: nhlapi.TeamRef{ID: homeID}},
			Away: nhlapi.TeamSide{Team: nhlapi.TeamRef{ID: awayID}},
		},
	}
}

func epgEntry(title string, urls ...string) nhlapi.EPGEntry {
	playbacks := make([]nhlapi.Playback, 0, len(urls))
	for _, u := range urls {
		playbacks = append(playbacks, nhlapi.Playback{Name: "FLASH", URL: u})
	}
	return nhlapi.EPGEntry{Title: title, Items: []nhlapi.MediaItem{{Playbacks: playbacks}}}
}

func contentWith(entries ...nhlapi.EPGEntry) *nhlapi.Content {
	c := &nhlapi.Content{}
	c.Media.EPG = entries
	return c
}

func TestReconciler_SyncSchedule_InsertsNewGames(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sched := &fakeSchedule{schedule: scheduleDay("2020-02-09",
		scheduleGame(2019020810, 1, 2),
		scheduleGame(2019020811, 6, 10),
	)}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	err := rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09"))
	require.NoError(t, err, "Should sync schedule")

	assert.Equal(t, 2, store.inserts, "Should insert both games")
	assert.Equal(t, 1, sched.calls, "Should fetch the schedule once per run")

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	require.NotNil(t, h, "Inserted game should be retrievable")
	assert.Equal(t, "NJD", h.Home)
	assert.Equal(t, "NYI", h.Away)
	assert.Equal(t, "2020-02-09", h.DateKey())
	assert.False(t, h.Recap.Valid, "New row should have no recap link")
	assert.False(t, h.Extended.Valid, "New row should have no extended link")
}

func TestReconciler_SyncSchedule_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sched := &fakeSchedule{schedule: scheduleDay("2020-02-09",
		scheduleGame(2019020810, 1, 2),
		scheduleGame(2019020811, 6, 10),
	)}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	day := date(t, "2020-02-09")

	require.NoError(t, rec.SyncSchedule(ctx, day, day))
	require.NoError(t, rec.SyncSchedule(ctx, day, day))

	assert.Equal(t, 2, store.inserts, "Second run should insert nothing new")
	assert.Equal(t, 0, store.updates, "Sync should never update existing rows")
}

func TestReconciler_SyncSchedule_PreservesExistingRows(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	// Seed a row that already carries a recap link.
	seeded := models.NewHighlight(2019020810, date(t, "2020-02-09"), "NJD", "NYI")
	seeded.SetRecap("https://cdn.example.com/recap.mp4")
	require.NoError(t, store.Insert(ctx, seeded))

	sched := &fakeSchedule{schedule: scheduleDay("2020-02-09", scheduleGame(2019020810, 1, 2))}
	rec := NewReconciler(sched, newFakeContent(), store, 3)

	require.NoError(t, rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09")))

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.Recap.Valid, "Existing media link should survive a re-sync")
	assert.Equal(t, "https://cdn.example.com/recap.mp4", h.Recap.String)
	assert.Equal(t, 1, store.inserts, "Re-listed game should not be inserted again")
}

func TestReconciler_SyncSchedule_SkipsUnmappedTeams(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	// First game has an unknown home id, second an unknown away id.
	sched := &fakeSchedule{schedule: scheduleDay("2020-02-09",
		scheduleGame(2019029001, 999, 2),
		scheduleGame(2019029002, 1, 999),
		scheduleGame(2019020810, 1, 2),
	)}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	err := rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09"))
	require.NoError(t, err, "Unmapped teams should not fail the run")

	assert.Equal(t, 1, store.inserts, "Only the fully mapped game should be stored")
	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.NotNil(t, h)

	for _, id := range []int64{2019029001, 2019029002} {
		h, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, h, "Skipped game should leave no row behind")
	}
}

func TestReconciler_SyncSchedule_SkipsUnparseableDay(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sched := &fakeSchedule{schedule: scheduleDay("not-a-date", scheduleGame(2019020810, 1, 2))}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	err := rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.inserts, "Games under an unparseable date should be skipped")
}

func TestReconciler_SyncSchedule_FetchFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sched := &fakeSchedule{err: errors.New("connection refused")}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	err := rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09"))
	require.Error(t, err, "Schedule fetch failure should abort the run")
	assert.Equal(t, 0, store.inserts)
}

func TestReconciler_SyncSchedule_StoreFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.getErr = errors.New("connection closed")
	sched := &fakeSchedule{schedule: scheduleDay("2020-02-09", scheduleGame(2019020810, 1, 2))}

	rec := NewReconciler(sched, newFakeContent(), store, 3)
	err := rec.SyncSchedule(ctx, date(t, "2020-02-09"), date(t, "2020-02-09"))
	require.Error(t, err, "Store failure should abort the run")
}

func TestReconciler_FillMissingMedia_FillsBothLinks(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))

	content := newFakeContent()
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleRecap, "https://cdn.example.com/recap-low.mp4", "https://cdn.example.com/recap-high.mp4"),
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/ext-high.mp4"),
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.IsComplete(), "Both links should be filled")
	assert.Equal(t, "https://cdn.example.com/recap-high.mp4", h.Recap.String,
		"Recap should use the last playback of the first item")
	assert.Equal(t, "https://cdn.example.com/ext-high.mp4", h.Extended.String)
	assert.Equal(t, 1, store.updates, "One row should be persisted")
}

func TestReconciler_FillMissingMedia_TakesFirstItemOnly(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))

	// Two items under the recap title; only the first one counts.
	c := &nhlapi.Content{}
	c.Media.EPG = []nhlapi.EPGEntry{{
		Title: nhlapi.TitleRecap,
		Items: []nhlapi.MediaItem{
			{Playbacks: []nhlapi.Playback{
				{Name: "FLASH_450K", URL: "https://cdn.example.com/first-low.mp4"},
				{Name: "FLASH_1800K", URL: "https://cdn.example.com/first-high.mp4"},
			}},
			{Playbacks: []nhlapi.Playback{
				{Name: "FLASH_1800K", URL: "https://cdn.example.com/second-high.mp4"},
			}},
		},
	}}
	content := newFakeContent()
	content.content[2019020810] = c

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/first-high.mp4", h.Recap.String)
}

func TestReconciler_FillMissingMedia_PartialFillKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")

	h := models.NewHighlight(2019020810, now, "NJD", "NYI")
	h.SetRecap("https://cdn.example.com/recap.mp4")
	require.NoError(t, store.Insert(ctx, h))

	// Upstream now serves only the extended cut.
	content := newFakeContent()
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/ext.mp4"),
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	got, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/recap.mp4", got.Recap.String,
		"Absent recap label should leave the stored link alone")
	assert.Equal(t, "https://cdn.example.com/ext.mp4", got.Extended.String)
	assert.True(t, got.IsComplete())
}

func TestReconciler_FillMissingMedia_ExtendedOnlyLeavesRecapAbsent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))

	content := newFakeContent()
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/ext.mp4"),
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ext.mp4", h.Extended.String)
	assert.False(t, h.Recap.Valid, "Recap should stay absent")
	assert.False(t, h.IsComplete(), "Half-filled row should remain in the missing set")
}

func TestReconciler_FillMissingMedia_EmptyContentStillPersists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))

	// Entries exist but carry nothing playable.
	content := newFakeContent()
	content.content[2019020810] = contentWith(
		nhlapi.EPGEntry{Title: nhlapi.TitleRecap},
		nhlapi.EPGEntry{Title: nhlapi.TitleExtended, Items: []nhlapi.MediaItem{{}}},
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.False(t, h.Recap.Valid, "Empty entry should not fill the recap")
	assert.False(t, h.Extended.Valid, "Entry without playbacks should not fill the extended link")
	assert.Equal(t, 1, store.updates, "Row is persisted even when nothing was found")
}

func TestReconciler_FillMissingMedia_RetriesFailedGameNextRun(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020811, now, "BOS", "TOR")))

	content := newFakeContent()
	content.errs[2019020810] = &nhlapi.Error{Op: "game content", StatusCode: 503}
	content.content[2019020811] = contentWith(
		epgEntry(nhlapi.TitleRecap, "https://cdn.example.com/811-recap.mp4"),
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/811-ext.mp4"),
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now), "One failed game should not fail the pass")

	failed, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.False(t, failed.Recap.Valid, "Failed game should stay missing")

	ok, err := store.Get(ctx, 2019020811)
	require.NoError(t, err)
	assert.True(t, ok.IsComplete(), "Other games should still be filled")

	// Upstream recovers; the next run picks the game up again.
	delete(content.errs, 2019020810)
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleRecap, "https://cdn.example.com/810-recap.mp4"),
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/810-ext.mp4"),
	)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	recovered, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	assert.True(t, recovered.IsComplete(), "Recovered game should be filled on the next run")
	assert.Equal(t, 2, content.calls[2019020810], "Failed game should be queried again")
	assert.Equal(t, 1, content.calls[2019020811], "Complete game should not be queried again")
}

func TestReconciler_FillMissingMedia_WindowExcludesOldGames(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")

	inside := models.NewHighlight(2019020801, now.AddDate(0, 0, -3), "NJD", "NYI")
	outside := models.NewHighlight(2019020702, now.AddDate(0, 0, -4), "BOS", "TOR")
	require.NoError(t, store.Insert(ctx, inside))
	require.NoError(t, store.Insert(ctx, outside))

	content := newFakeContent()
	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	assert.Equal(t, 1, content.calls[2019020801], "Game three days back is still inside the window")
	assert.Equal(t, 0, content.calls[2019020702], "Game four days back is given up on")
}

func TestReconciler_FillMissingMedia_CompleteRowsNotQueried(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")

	h := models.NewHighlight(2019020810, now, "NJD", "NYI")
	h.SetRecap("https://cdn.example.com/recap.mp4")
	h.SetExtended("https://cdn.example.com/ext.mp4")
	require.NoError(t, store.Insert(ctx, h))

	content := newFakeContent()
	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	require.NoError(t, rec.FillMissingMedia(ctx, now))

	assert.Equal(t, 0, content.calls[2019020810], "Complete rows should never be re-queried")
	assert.Equal(t, 0, store.updates)
}

func TestReconciler_FillMissingMedia_UpdateFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := date(t, "2020-02-09")
	require.NoError(t, store.Insert(ctx, models.NewHighlight(2019020810, now, "NJD", "NYI")))
	store.updateErr = errors.New("connection closed")

	content := newFakeContent()
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleRecap, "https://cdn.example.com/recap.mp4"),
	)

	rec := NewReconciler(&fakeSchedule{}, content, store, 3)
	err := rec.FillMissingMedia(ctx, now)
	require.Error(t, err, "Failed persist should abort the pass")
}

func TestReconciler_Run_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	sched := &fakeSchedule{schedule: scheduleDay(today.Format(models.DateLayout),
		scheduleGame(2019020810, 1, 2),
		scheduleGame(2019029001, 999, 2), // all-star squad, not in the team map
	)}
	content := newFakeContent()
	content.content[2019020810] = contentWith(
		epgEntry(nhlapi.TitleRecap, "https://cdn.example.com/recap.mp4"),
		epgEntry(nhlapi.TitleExtended, "https://cdn.example.com/ext.mp4"),
	)

	rec := NewReconciler(sched, content, store, 3)
	require.NoError(t, rec.Run(ctx, today, today))

	assert.Len(t, store.rows, 1, "Exactly one game should be stored")
	h, err := store.Get(ctx, 2019020810)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "NJD", h.Home)
	assert.Equal(t, "NYI", h.Away)
	assert.True(t, h.IsComplete(), "Media should be filled in the same run")

	// A second run converges without touching anything.
	require.NoError(t, rec.Run(ctx, today, today))
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1, content.calls[2019020810], "Complete game should not be fetched again")
}

func date(t *testing.T, day string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, day)
	require.NoError(t, err)
	return d
}
