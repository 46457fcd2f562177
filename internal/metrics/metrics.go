// Package metrics exposes Prometheus counters for import and cleanup
// outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BooksImported counts book rows upserted by the importer.
	BooksImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_books_imported_total",
		Help: "Book items upserted during catalog imports.",
	})

	// PodcastsImported counts podcast shows upserted by the importer.
	PodcastsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_podcasts_imported_total",
		Help: "Podcast shows upserted during catalog imports.",
	})

	// EpisodesImported counts podcast episode rows upserted by the importer.
	EpisodesImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_episodes_imported_total",
		Help: "Podcast episodes upserted during catalog imports.",
	})

	// ImportErrors counts degraded item or page fetches during imports.
	ImportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_import_errors_total",
		Help: "Remote fetch failures degraded during catalog imports.",
	})

	// DuplicatesMerged counts collected rows deleted as dedup losers.
	DuplicatesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_duplicates_merged_total",
		Help: "Collected rows removed by duplicate merging.",
	})

	// OutboxWrites counts locally originated progress changes queued for
	// delivery.
	OutboxWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelftrack_outbox_writes_total",
		Help: "Progress changes queued to the sync outbox.",
	})
)
