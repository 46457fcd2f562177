package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Progress operations

// UpsertProgressLatest inserts or updates the current progress row keyed on
// (target, library item, episode key).
func (db *Database) UpsertProgressLatest(progress *ProgressLatest) error {
	progress.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_id"}, {Name: "library_item_id"}, {Name: "episode_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"media_progress_id", "progress", "position_sec",
			"duration_sec", "finished", "started_at_ms",
			"finished_at_ms", "last_update_ms", "source", "updated_at",
		}),
	}).Create(progress).Error
}

// GetProgressLatest retrieves the current progress row, nil when absent
func (db *Database) GetProgressLatest(targetID, libraryItemID string, episodeID *string) (*ProgressLatest, error) {
	var progress ProgressLatest
	err := db.db.
		Where("target_id = ? AND library_item_id = ? AND episode_key = ?",
			targetID, libraryItemID, EpisodeKey(episodeID)).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetProgressByTargets retrieves all current progress rows on a set of
// targets
func (db *Database) GetProgressByTargets(targetIDs []string) ([]*ProgressLatest, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var rows []*ProgressLatest
	err := db.db.Where("target_id IN ?", targetIDs).
		Order("last_update_ms DESC, updated_at DESC").Find(&rows).Error
	return rows, err
}

// AppendProgressHistory appends one history row
func (db *Database) AppendProgressHistory(entry *ProgressHistory) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	return db.db.Create(entry).Error
}

// Outbox operations

// CreateProgressOutbox queues one locally originated progress change
func (db *Database) CreateProgressOutbox(entry *ProgressOutbox) error {
	if entry.Status == "" {
		entry.Status = OutboxStatusPending
	}
	return db.db.Create(entry).Error
}

// GetPendingOutbox retrieves all pending outbox rows, oldest first
func (db *Database) GetPendingOutbox() ([]*ProgressOutbox, error) {
	var rows []*ProgressOutbox
	err := db.db.Where("status = ?", OutboxStatusPending).Order("id").Find(&rows).Error
	return rows, err
}

// UpdateOutboxStatus sets the delivery status of an outbox row
func (db *Database) UpdateOutboxStatus(id uint, status OutboxStatus) error {
	return db.db.Model(&ProgressOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

// CountOutbox counts outbox rows in a delivery status
func (db *Database) CountOutbox(status OutboxStatus) (int64, error) {
	var count int64
	err := db.db.Model(&ProgressOutbox{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
