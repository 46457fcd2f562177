package scheduler

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"shelftrack/internal/controllers"
	"shelftrack/internal/models"
	"shelftrack/internal/targets"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	importCtrl      *controllers.ImportController
	cleanupCtrl     *controllers.CleanupController
	db              *models.Database
	triggerFile     string
	defaultInterval int
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	importCtrl *controllers.ImportController,
	cleanupCtrl *controllers.CleanupController,
	db *models.Database,
	triggerFile string,
	defaultIntervalSeconds int,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		importCtrl:      importCtrl,
		cleanupCtrl:     cleanupCtrl,
		db:              db,
		triggerFile:     triggerFile,
		defaultInterval: defaultIntervalSeconds,
		logger:          logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	interval := s.syncInterval()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", interval), func() {
		s.runImport()
	})
	if err != nil {
		return fmt.Errorf("failed to add import job: %w", err)
	}

	// Daily at 03:00: presence refresh and duplicate merge
	_, err = s.cron.AddFunc("0 3 * * *", func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	// Every minute: check for a manual sync trigger
	_, err = s.cron.AddFunc("* * * * *", func() {
		s.runTriggerCheck()
	})
	if err != nil {
		return fmt.Errorf("failed to add trigger check job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("interval_seconds", interval).Info("Scheduler started")

	// Run an initial import immediately
	go s.runImport()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// syncInterval reads the runtime interval setting, falling back to the
// configured default
func (s *Scheduler) syncInterval() int {
	value, err := s.db.GetRuntimeSetting(targets.SettingSyncInterval)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read sync interval setting")
		return s.defaultInterval
	}
	if value == "" {
		return s.defaultInterval
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 60 {
		return s.defaultInterval
	}
	return seconds
}

// runImport executes the import job
func (s *Scheduler) runImport() {
	s.logger.Info("Running scheduled import")
	ctx := context.Background()

	summary, err := s.importCtrl.ImportAll(ctx, controllers.DefaultImportOptions())
	if err != nil {
		s.logger.WithError(err).Error("Import job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"accounts": summary.Accounts,
		"books":    summary.Books,
		"podcasts": summary.Podcasts,
		"episodes": summary.Episodes,
		"errors":   summary.Errors,
	}).Info("Import job completed")
}

// runCleanup executes the presence refresh and dedup job
func (s *Scheduler) runCleanup() {
	s.logger.Info("Running scheduled cleanup")
	ctx := context.Background()

	summary, err := s.cleanupCtrl.Run(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Cleanup job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"targets": summary.Targets,
		"groups":  summary.Groups,
		"deleted": summary.Deleted,
		"errors":  summary.Errors,
	}).Info("Cleanup job completed")
}

// runTriggerCheck consumes the manual sync trigger file when present and
// runs an import in its place
func (s *Scheduler) runTriggerCheck() {
	if _, err := os.Stat(s.triggerFile); err != nil {
		return
	}
	if err := os.Remove(s.triggerFile); err != nil {
		s.logger.WithError(err).Warn("Failed to consume sync trigger")
		return
	}

	requestedAt, err := s.db.GetRuntimeSetting(targets.SettingManualSyncAt)
	if err == nil && requestedAt != "" {
		if at, parseErr := time.Parse(time.RFC3339, requestedAt); parseErr == nil {
			s.logger.WithField("requested_at", at.Format(time.RFC3339)).
				Info("Manual sync trigger found")
		}
	}
	s.runImport()
}
