package models

import "time"

// EpisodeKey maps the optional episode reference used by the core API onto
// the column value. The empty string means "whole item"; storing it instead
// of NULL keeps the composite unique key honest, since sqlite treats NULLs
// as distinct in unique indexes.
func EpisodeKey(episodeID *string) string {
	if episodeID == nil {
		return ""
	}
	return *episodeID
}

// EpisodeRef is the inverse of EpisodeKey.
func EpisodeRef(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// ProgressLatest is the current progress state per (target, item, episode).
type ProgressLatest struct {
	ID              uint   `gorm:"primaryKey"`
	TargetID        string `gorm:"column:target_id;uniqueIndex:uniq_progress_latest;not null"`
	LibraryItemID   string `gorm:"column:library_item_id;uniqueIndex:uniq_progress_latest;not null"`
	EpisodeKey      string `gorm:"column:episode_key;uniqueIndex:uniq_progress_latest"`
	MediaProgressID string `gorm:"column:media_progress_id"`
	Progress        float64
	PositionSec     float64 `gorm:"column:position_sec"`
	DurationSec     float64 `gorm:"column:duration_sec"`
	Finished        bool
	StartedAtMS     int64  `gorm:"column:started_at_ms"`
	FinishedAtMS    int64  `gorm:"column:finished_at_ms"`
	LastUpdateMS    int64  `gorm:"column:last_update_ms"`
	Source          string // "abs" for server-reported rows, "local" for marks

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completed reports the completion rule: the finished flag, or progress at
// or above 98 percent.
func (p *ProgressLatest) Completed() bool {
	return p.Finished || p.Progress >= 0.98
}

// LastActivity is the remote-reported update time when known, else the
// local row update time.
func (p *ProgressLatest) LastActivity() time.Time {
	if p.LastUpdateMS > 0 {
		return time.UnixMilli(p.LastUpdateMS)
	}
	return p.UpdatedAt
}

// ProgressHistory is the append-only progress log.
type ProgressHistory struct {
	ID            uint   `gorm:"primaryKey"`
	TargetID      string `gorm:"column:target_id;index:idx_progress_history_item"`
	LibraryItemID string `gorm:"column:library_item_id;index:idx_progress_history_item"`
	EpisodeKey    string `gorm:"column:episode_key"`
	Progress      float64
	PositionSec   float64 `gorm:"column:position_sec"`
	DurationSec   float64 `gorm:"column:duration_sec"`
	Finished      bool
	StartedAtMS   int64 `gorm:"column:started_at_ms"`
	FinishedAtMS  int64 `gorm:"column:finished_at_ms"`
	LastUpdateMS  int64 `gorm:"column:last_update_ms"`
	Source        string
	RecordedAt    time.Time `gorm:"column:recorded_at"`
}

// ProgressOutbox is a locally originated progress change awaiting delivery
// by the external sync worker.
type ProgressOutbox struct {
	ID              uint   `gorm:"primaryKey"`
	TargetID        string `gorm:"column:target_id;index"`
	LibraryItemID   string `gorm:"column:library_item_id"`
	EpisodeKey      string `gorm:"column:episode_key"`
	ServerID        string `gorm:"column:server_id"`
	PrincipalID     string `gorm:"column:principal_id"`
	UserID          string `gorm:"column:user_id"`
	MediaProgressID string `gorm:"column:media_progress_id"`
	Progress        float64
	PositionSec     float64 `gorm:"column:position_sec"`
	DurationSec     float64 `gorm:"column:duration_sec"`
	Finished        bool
	StartedAtMS     int64 `gorm:"column:started_at_ms"`
	FinishedAtMS    int64 `gorm:"column:finished_at_ms"`
	LastUpdateMS    int64 `gorm:"column:last_update_ms"`
	Source          string
	Status          OutboxStatus `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry converts a latest row to a history append.
func (p *ProgressLatest) HistoryEntry(at time.Time) *ProgressHistory {
	return &ProgressHistory{
		TargetID:      p.TargetID,
		LibraryItemID: p.LibraryItemID,
		EpisodeKey:    p.EpisodeKey,
		Progress:      p.Progress,
		PositionSec:   p.PositionSec,
		DurationSec:   p.DurationSec,
		Finished:      p.Finished,
		StartedAtMS:   p.StartedAtMS,
		FinishedAtMS:  p.FinishedAtMS,
		LastUpdateMS:  p.LastUpdateMS,
		Source:        p.Source,
		RecordedAt:    at,
	}
}
