package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collected item operations

// UpsertCollectedItem inserts or updates a collected item keyed on
// (owner, target, library item).
func (db *Database) UpsertCollectedItem(item *CollectedItem) error {
	item.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_user_id"}, {Name: "target_id"}, {Name: "library_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"media_type", "title", "author", "series_name", "year",
			"asin", "cover_url", "status", "source", "updated_at",
		}),
	}).Create(item).Error
}

// GetCollectedItems retrieves all collected items for an owner
func (db *Database) GetCollectedItems(owner int) ([]*CollectedItem, error) {
	var items []*CollectedItem
	err := db.db.Where("owner_user_id = ?", owner).Order("id").Find(&items).Error
	return items, err
}

// GetCollectedBooks retrieves all book rows for an owner
func (db *Database) GetCollectedBooks(owner int) ([]*CollectedItem, error) {
	var items []*CollectedItem
	err := db.db.
		Where("owner_user_id = ? AND media_type = ?", owner, MediaTypeBook).
		Order("id").Find(&items).Error
	return items, err
}

// GetCollectedBooksByTarget retrieves all book rows on a target
func (db *Database) GetCollectedBooksByTarget(targetID string) ([]*CollectedItem, error) {
	var items []*CollectedItem
	err := db.db.
		Where("target_id = ? AND media_type = ?", targetID, MediaTypeBook).
		Order("id").Find(&items).Error
	return items, err
}

// MarkBooksMissing flips every book row on a target to missing
func (db *Database) MarkBooksMissing(targetID string) error {
	return db.db.Model(&CollectedItem{}).
		Where("target_id = ? AND media_type = ?", targetID, MediaTypeBook).
		Update("status", CollectionStatusMissing).Error
}

// MarkBooksCollected flips the given live item ids on a target back to
// collected
func (db *Database) MarkBooksCollected(targetID string, itemIDs []string) error {
	for start := 0; start < len(itemIDs); start += 500 {
		end := start + 500
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		err := db.db.Model(&CollectedItem{}).
			Where("target_id = ? AND media_type = ? AND library_item_id IN ?",
				targetID, MediaTypeBook, itemIDs[start:end]).
			Update("status", CollectionStatusCollected).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteCollectedItems deletes collected rows by row id
func (db *Database) DeleteCollectedItems(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return db.db.Delete(&CollectedItem{}, ids).Error
}

// Identity operations

// UpsertItemIdentity inserts or updates an identity row keyed on
// (target, library item).
func (db *Database) UpsertItemIdentity(identity *ItemIdentity) error {
	identity.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_id"}, {Name: "library_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"canonical_key", "asin", "isbn", "title", "author",
			"series_name", "year", "duration_sec", "updated_at",
		}),
	}).Create(identity).Error
}

// GetItemIdentity retrieves one identity row, nil when absent
func (db *Database) GetItemIdentity(targetID, libraryItemID string) (*ItemIdentity, error) {
	var identity ItemIdentity
	err := db.db.
		Where("target_id = ? AND library_item_id = ?", targetID, libraryItemID).
		First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetIdentitiesByTargets retrieves identity rows for a set of targets
func (db *Database) GetIdentitiesByTargets(targetIDs []string) ([]*ItemIdentity, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var identities []*ItemIdentity
	err := db.db.Where("target_id IN ?", targetIDs).Find(&identities).Error
	return identities, err
}

// Podcast operations

// UpsertPodcastShow inserts or updates a show keyed on
// (owner, target, library item).
func (db *Database) UpsertPodcastShow(show *PodcastShow) error {
	show.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_user_id"}, {Name: "target_id"}, {Name: "library_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "author", "feed_url", "image_url", "itunes_id",
			"itunes_page_url", "release_date", "language", "source", "updated_at",
		}),
	}).Create(show).Error
}

// GetPodcastShows retrieves all shows for an owner
func (db *Database) GetPodcastShows(owner int) ([]*PodcastShow, error) {
	var shows []*PodcastShow
	err := db.db.Where("owner_user_id = ?", owner).Order("title").Find(&shows).Error
	return shows, err
}

// UpsertPodcastEpisode inserts or updates an episode keyed on
// (owner, target, library item, episode id).
func (db *Database) UpsertPodcastEpisode(episode *PodcastEpisode) error {
	episode.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_user_id"}, {Name: "target_id"},
			{Name: "library_item_id"}, {Name: "episode_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"native_episode_id", "presence", "title", "author",
			"published_at", "duration_sec", "image_url", "source", "updated_at",
		}),
	}).Create(episode).Error
}

// GetPodcastEpisodes retrieves all episodes of one show
func (db *Database) GetPodcastEpisodes(owner int, targetID, libraryItemID string) ([]*PodcastEpisode, error) {
	var episodes []*PodcastEpisode
	err := db.db.
		Where("owner_user_id = ? AND target_id = ? AND library_item_id = ?",
			owner, targetID, libraryItemID).
		Find(&episodes).Error
	return episodes, err
}

// DeleteStaleEpisodes removes episode rows of a show whose episode id is not
// in the freshly imported set.
func (db *Database) DeleteStaleEpisodes(owner int, targetID, libraryItemID string, keepEpisodeIDs []string) error {
	query := db.db.
		Where("owner_user_id = ? AND target_id = ? AND library_item_id = ?",
			owner, targetID, libraryItemID)
	if len(keepEpisodeIDs) > 0 {
		query = query.Where("episode_id NOT IN ?", keepEpisodeIDs)
	}
	return query.Delete(&PodcastEpisode{}).Error
}
