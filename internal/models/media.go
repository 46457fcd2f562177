package models

import "time"

// CollectedItem is one library item observed on a target. Rows are never
// hard-deleted by the importer; the cleanup engine flips Status and removes
// only dedup losers.
type CollectedItem struct {
	ID            uint      `gorm:"primaryKey"`
	OwnerUserID   int       `gorm:"column:owner_user_id;uniqueIndex:uniq_collected_item;not null"`
	TargetID      string    `gorm:"column:target_id;uniqueIndex:uniq_collected_item;not null"`
	LibraryItemID string    `gorm:"column:library_item_id;uniqueIndex:uniq_collected_item;not null"`
	MediaType     MediaType `gorm:"column:media_type"`
	Title         string
	Author        string
	SeriesName    string `gorm:"column:series_name"`
	Year          int
	ASIN          string `gorm:"column:asin"`
	CoverURL      string `gorm:"column:cover_url"`
	Status        CollectionStatus
	Source        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemIdentity carries the resolved identity of a library item, including
// the canonical key used for cross-target matching.
type ItemIdentity struct {
	ID            uint   `gorm:"primaryKey"`
	TargetID      string `gorm:"column:target_id;uniqueIndex:uniq_identity_item;not null"`
	LibraryItemID string `gorm:"column:library_item_id;uniqueIndex:uniq_identity_item;not null"`
	CanonicalKey  string `gorm:"column:canonical_key;index"`
	ASIN          string `gorm:"column:asin"`
	ISBN          string `gorm:"column:isbn"`
	Title         string
	Author        string
	SeriesName    string `gorm:"column:series_name"`
	Year          int
	DurationSec   float64 `gorm:"column:duration_sec"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PodcastShow is one podcast library item plus feed/catalog enrichment.
type PodcastShow struct {
	ID            uint   `gorm:"primaryKey"`
	OwnerUserID   int    `gorm:"column:owner_user_id;uniqueIndex:uniq_podcast_show;not null"`
	TargetID      string `gorm:"column:target_id;uniqueIndex:uniq_podcast_show;not null"`
	LibraryItemID string `gorm:"column:library_item_id;uniqueIndex:uniq_podcast_show;not null"`
	Title         string
	Author        string
	FeedURL       string `gorm:"column:feed_url"`
	ImageURL      string `gorm:"column:image_url"`
	ITunesID      string `gorm:"column:itunes_id"`
	ITunesPageURL string `gorm:"column:itunes_page_url"`
	ReleaseDate   string `gorm:"column:release_date"`
	Language      string
	Source        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PodcastEpisode is one known episode of a show. EpisodeID is the stable
// external id (possibly synthesized); NativeEpisodeID is the server-side id
// when presence matching found one.
type PodcastEpisode struct {
	ID              uint   `gorm:"primaryKey"`
	OwnerUserID     int    `gorm:"column:owner_user_id;uniqueIndex:uniq_podcast_episode;not null"`
	TargetID        string `gorm:"column:target_id;uniqueIndex:uniq_podcast_episode;not null"`
	LibraryItemID   string `gorm:"column:library_item_id;uniqueIndex:uniq_podcast_episode;not null"`
	EpisodeID       string `gorm:"column:episode_id;uniqueIndex:uniq_podcast_episode;not null"`
	NativeEpisodeID string `gorm:"column:native_episode_id"`
	Presence        Presence
	Title           string
	Author          string
	PublishedAt     string  `gorm:"column:published_at"`
	DurationSec     float64 `gorm:"column:duration_sec"`
	ImageURL        string  `gorm:"column:image_url"`
	Source          string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackedBook is a manually curated book, independent of any target.
type TrackedBook struct {
	ID             uint   `gorm:"primaryKey"`
	OwnerUserID    int    `gorm:"column:owner_user_id;uniqueIndex:uniq_tracked_book;not null"`
	ASIN           string `gorm:"column:asin;uniqueIndex:uniq_tracked_book"`
	ISBN           string `gorm:"column:isbn;uniqueIndex:uniq_tracked_book"`
	Title          string `gorm:"uniqueIndex:uniq_tracked_book"`
	Author         string
	SeriesName     string  `gorm:"column:series_name"`
	SeriesIndex    float64 `gorm:"column:series_index"`
	Status         TrackedStatus
	Progress       float64
	MetadataSource string `gorm:"column:metadata_source"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
