package models

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database wraps the gorm sqlite store
type Database struct {
	db *gorm.DB
}

// NewDatabase opens the sqlite database at path
func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql handle: %w", err)
	}
	// A single writer keeps sqlite lock contention out of the picture.
	sqlDB.SetMaxOpenConns(1)

	return &Database{db: db}, nil
}

// EnsureSchema migrates all tables, retrying with exponential backoff so a
// briefly locked database file does not kill startup. Idempotent.
func (db *Database) EnsureSchema() error {
	migrate := func() error {
		return db.db.AutoMigrate(
			&SyncAccount{},
			&TargetState{},
			&RuntimeSetting{},
			&CollectedItem{},
			&ItemIdentity{},
			&PodcastShow{},
			&PodcastEpisode{},
			&TrackedBook{},
			&ProgressLatest{},
			&ProgressHistory{},
			&ProgressOutbox{},
		)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(migrate, policy); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
