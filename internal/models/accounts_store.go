package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Account operations

// SaveSyncAccount creates or updates an account row
func (db *Database) SaveSyncAccount(account *SyncAccount) error {
	account.UpdatedAt = time.Now()
	return db.db.Save(account).Error
}

// GetSyncAccounts retrieves all accounts for an owner
func (db *Database) GetSyncAccounts(owner int) ([]*SyncAccount, error) {
	var accounts []*SyncAccount
	err := db.db.Where("owner_user_id = ?", owner).Order("id").Find(&accounts).Error
	return accounts, err
}

// GetEnabledSyncAccounts retrieves enabled accounts for an owner
func (db *Database) GetEnabledSyncAccounts(owner int) ([]*SyncAccount, error) {
	var accounts []*SyncAccount
	err := db.db.Where("owner_user_id = ? AND enabled = ?", owner, true).
		Order("id").Find(&accounts).Error
	return accounts, err
}

// GetAllEnabledSyncAccounts retrieves enabled accounts across all owners
func (db *Database) GetAllEnabledSyncAccounts() ([]*SyncAccount, error) {
	var accounts []*SyncAccount
	err := db.db.Where("enabled = ?", true).Order("id").Find(&accounts).Error
	return accounts, err
}

// GetSyncAccountByID retrieves one account, nil when absent
func (db *Database) GetSyncAccountByID(id uint) (*SyncAccount, error) {
	var account SyncAccount
	err := db.db.First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteSyncAccount deletes an account row by id
func (db *Database) DeleteSyncAccount(id uint) error {
	return db.db.Delete(&SyncAccount{}, id).Error
}

// AccountNameExists reports whether an owner already uses a name on another
// account row
func (db *Database) AccountNameExists(owner int, name string, excludeID uint) (bool, error) {
	var count int64
	err := db.db.Model(&SyncAccount{}).
		Where("owner_user_id = ? AND account_name = ? AND id <> ?", owner, name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Target state operations

// UpsertTargetState inserts or updates the observed state of a target
func (db *Database) UpsertTargetState(state *TargetState) error {
	state.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"server_id", "principal_id", "user_id", "updated_at",
		}),
	}).Create(state).Error
}

// GetTargetState retrieves the observed state of a target, nil when absent
func (db *Database) GetTargetState(targetID string) (*TargetState, error) {
	var state TargetState
	err := db.db.Where("target_id = ?", targetID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Runtime settings

// SetRuntimeSetting writes a key/value marker
func (db *Database) SetRuntimeSetting(key, value string) error {
	setting := &RuntimeSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return db.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
}

// GetRuntimeSetting reads a marker, empty string when absent
func (db *Database) GetRuntimeSetting(key string) (string, error) {
	var setting RuntimeSetting
	err := db.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Tracked book operations

// UpsertTrackedBook inserts or updates a tracked book keyed on
// (owner, asin, isbn, title).
func (db *Database) UpsertTrackedBook(book *TrackedBook) error {
	book.UpdatedAt = time.Now()
	return db.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_user_id"}, {Name: "asin"}, {Name: "isbn"}, {Name: "title"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"author", "series_name", "series_index", "status",
			"progress", "metadata_source", "updated_at",
		}),
	}).Create(book).Error
}

// SaveTrackedBook updates an existing tracked book row
func (db *Database) SaveTrackedBook(book *TrackedBook) error {
	book.UpdatedAt = time.Now()
	return db.db.Save(book).Error
}

// GetTrackedBooks retrieves all tracked books for an owner, newest change
// first
func (db *Database) GetTrackedBooks(owner int) ([]*TrackedBook, error) {
	var books []*TrackedBook
	err := db.db.Where("owner_user_id = ?", owner).
		Order("updated_at DESC").Find(&books).Error
	return books, err
}

// GetTrackedBookByID retrieves one tracked book, nil when absent
func (db *Database) GetTrackedBookByID(id uint) (*TrackedBook, error) {
	var book TrackedBook
	err := db.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
