package nhlapi

// Title labels of the media entries this service extracts.
const (
	TitleRecap    = "Recap"
	TitleExtended = "Extended Highlights"
)

// Schedule is the /schedule response: games grouped by calendar day.
type Schedule struct {
	TotalGames int            `json:"totalGames"`
	Dates      []ScheduleDate `json:"dates"`
}

// ScheduleDate holds one day's games.
type ScheduleDate struct {
	Date  string         `json:"date"`
	Games []ScheduleGame `json:"games"`
}

// ScheduleGame carries the identifiers the sync pass needs from a
// schedule entry.
type ScheduleGame struct {
	GamePk int64     `json:"gamePk"`
	Teams  GameTeams `json:"teams"`
}

// GameTeams names both sides of a matchup.
type GameTeams struct {
	Away TeamSide `json:"away"`
	Home TeamSide `json:"home"`
}

// TeamSide wraps the team reference of one side.
type TeamSide struct {
	Team TeamRef `json:"team"`
}

// TeamRef identifies a team by the league's numeric id.
type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Content is the media portion of the /game/{id}/content response.
type Content struct {
	Media ContentMedia `json:"media"`
}

// ContentMedia lists the game's video entries.
type ContentMedia struct {
	EPG []EPGEntry `json:"epg"`
}

// EPGEntry is one titled group of videos ("Recap", "Extended Highlights").
type EPGEntry struct {
	Title string      `json:"title"`
	Items []MediaItem `json:"items"`
}

// MediaItem is a single video with its available playbacks.
type MediaItem struct {
	Playbacks []Playback `json:"playbacks"`
}

// Playback is one rendition of a video.
type Playback struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PlaybackURL returns the URL for the entry titled title: the last playback
// of the entry's first item. Playbacks are ordered lowest to highest quality
// upstream. ok is false when the entry is missing or has no items or
// playbacks.
func (c *Content) PlaybackURL(title string) (string, bool) {
	for _, entry := range c.Media.EPG {
		if entry.Title != title {
			continue
		}
		if len(entry.Items) == 0 {
			return "", false
		}
		playbacks := entry.Items[0].Playbacks
		if len(playbacks) == 0 {
			return "", false
		}
		return playbacks[len(playbacks)-1].URL, true
	}
	return "", false
}
