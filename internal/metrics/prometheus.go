package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the highlights service

var (
	// Schedule sync metrics
	GamesInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhl_highlights_games_inserted_total",
			Help: "Total number of new games inserted from the schedule",
		},
	)

	GamesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhl_highlights_games_skipped_total",
			Help: "Total number of schedule games skipped for unknown teams",
		},
	)

	// Media fill metrics
	MediaLinksFilledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_highlights_media_links_filled_total",
			Help: "Total number of media links filled in",
		},
		[]string{"kind"},
	)

	ContentErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhl_highlights_content_errors_total",
			Help: "Total number of failed game content fetches",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhl_highlights_sync_operations_total",
			Help: "Total number of sync operations",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nhl_highlights_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	// Render metrics
	PagesRendered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_highlights_pages_rendered",
			Help: "Number of HTML pages written by the last render",
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_highlights_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nhl_highlights_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync operation",
		},
	)
)

// RecordGameInserted records a newly inserted game
func RecordGameInserted() {
	GamesInsertedTotal.Inc()
}

// RecordGameSkipped records a schedule game skipped for an unknown team
func RecordGameSkipped() {
	GamesSkippedTotal.Inc()
}

// RecordMediaFilled records a media link transitioning from absent to present
func RecordMediaFilled(kind string) {
	MediaLinksFilledTotal.WithLabelValues(kind).Inc()
}

// RecordContentError records a failed game content fetch
func RecordContentError() {
	ContentErrorsTotal.Inc()
}

// RecordSync records a sync operation
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// UpdateRenderStats updates the page render statistics
func UpdateRenderStats(pages int) {
	PagesRendered.Set(float64(pages))
}
