package controllers

import (
	"context"
	"fmt"
	"time"

	"shelftrack/internal/crypto"
	"shelftrack/internal/metrics"
	"shelftrack/internal/models"
	"shelftrack/internal/services/abs"
	"shelftrack/internal/targets"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RebuildSummary reports one progress rebuild run
type RebuildSummary struct {
	Scanned    int `json:"scanned"`
	Updated    int `json:"updated"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Missing    int `json:"missing"`
}

// ProgressController rebuilds progress from remote servers and queues
// locally originated changes
type ProgressController struct {
	db            *models.Database
	box           *crypto.Box
	targetsWriter *targets.Writer
	logger        *logrus.Logger
}

// NewProgressController creates a new progress controller
func NewProgressController(db *models.Database, box *crypto.Box, targetsWriter *targets.Writer, logger *logrus.Logger) *ProgressController {
	return &ProgressController{
		db:            db,
		box:           box,
		targetsWriter: targetsWriter,
		logger:        logger,
	}
}

func (c *ProgressController) clientFor(account *models.SyncAccount) (*abs.Client, error) {
	token := c.box.Decrypt(account.TokenEncrypted)
	if token == "" {
		return nil, fmt.Errorf("account %q has no usable token", account.AccountName)
	}
	return abs.NewClient(account.BaseURL, token, c.logger)
}

// Rebuild re-queries per-item progress for every collected book of an
// owner and rewrites latest state plus history.
func (c *ProgressController) Rebuild(ctx context.Context, owner int) (*RebuildSummary, error) {
	accounts, err := c.db.GetEnabledSyncAccounts(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	summary := &RebuildSummary{}
	for _, account := range accounts {
		client, err := c.clientFor(account)
		if err != nil {
			c.logger.WithError(err).WithField("account", account.AccountName).
				Warn("Skipping account during rebuild")
			continue
		}
		targetID := account.ResolveTargetID()

		books, err := c.db.GetCollectedBooksByTarget(targetID)
		if err != nil {
			return nil, err
		}

		for _, book := range books {
			summary.Scanned++
			progress := client.Progress(ctx, book.LibraryItemID)
			if progress == nil {
				summary.Missing++
				continue
			}

			latest := &models.ProgressLatest{
				TargetID:        targetID,
				LibraryItemID:   book.LibraryItemID,
				EpisodeKey:      progress.EpisodeID,
				MediaProgressID: progress.ID,
				Progress:        progress.Progress,
				PositionSec:     progress.CurrentTime,
				DurationSec:     progress.Duration,
				Finished:        progress.IsFinished,
				StartedAtMS:     progress.StartedAt,
				FinishedAtMS:    progress.FinishedAt,
				LastUpdateMS:    progress.LastUpdate,
				Source:          "abs",
			}
			if err := c.db.UpsertProgressLatest(latest); err != nil {
				c.logger.WithError(err).WithField("item", book.LibraryItemID).
					Error("Failed to upsert progress")
				continue
			}
			if err := c.db.AppendProgressHistory(latest.HistoryEntry(latest.UpdatedAt)); err != nil {
				c.logger.WithError(err).WithField("item", book.LibraryItemID).
					Error("Failed to append history")
			}

			summary.Updated++
			if latest.Completed() {
				summary.Completed++
			} else if latest.Progress > 0 {
				summary.InProgress++
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"scanned":   summary.Scanned,
		"updated":   summary.Updated,
		"completed": summary.Completed,
		"missing":   summary.Missing,
	}).Info("Progress rebuild completed")

	return summary, nil
}

// MarkHeard records a finished state for a synced item and queues it for
// delivery
func (c *ProgressController) MarkHeard(ctx context.Context, owner int, targetID, libraryItemID string, episodeID *string) error {
	return c.markProgress(ctx, owner, targetID, libraryItemID, episodeID, true)
}

// MarkUnheard resets a synced item back to unplayed and queues it for
// delivery
func (c *ProgressController) MarkUnheard(ctx context.Context, owner int, targetID, libraryItemID string, episodeID *string) error {
	return c.markProgress(ctx, owner, targetID, libraryItemID, episodeID, false)
}

func (c *ProgressController) markProgress(ctx context.Context, owner int, targetID, libraryItemID string, episodeID *string, heard bool) error {
	account, err := c.accountForTarget(owner, targetID)
	if err != nil {
		return err
	}

	serverID, principalID, userID := c.composeIdentity(account, targetID)
	duration := c.resolveDuration(ctx, account, targetID, libraryItemID, episodeID)

	existing, err := c.db.GetProgressLatest(targetID, libraryItemID, episodeID)
	if err != nil {
		return err
	}
	mediaProgressID := ""
	if existing != nil {
		mediaProgressID = existing.MediaProgressID
	}
	if mediaProgressID == "" {
		mediaProgressID = uuid.NewString()
	}

	progressValue, positionSec := 0.0, 0.0
	now := time.Now().UnixMilli()
	startedAt, finishedAt := now, int64(0)
	if existing != nil && existing.StartedAtMS > 0 {
		startedAt = existing.StartedAtMS
	}
	if heard {
		progressValue = 1
		positionSec = duration
		finishedAt = now
	}

	latest := &models.ProgressLatest{
		TargetID:        targetID,
		LibraryItemID:   libraryItemID,
		EpisodeKey:      models.EpisodeKey(episodeID),
		MediaProgressID: mediaProgressID,
		Progress:        progressValue,
		PositionSec:     positionSec,
		DurationSec:     duration,
		Finished:        heard,
		StartedAtMS:     startedAt,
		FinishedAtMS:    finishedAt,
		LastUpdateMS:    now,
		Source:          "local",
	}
	if err := c.db.UpsertProgressLatest(latest); err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	if err := c.db.AppendProgressHistory(latest.HistoryEntry(latest.UpdatedAt)); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	outbox := &models.ProgressOutbox{
		TargetID:        targetID,
		LibraryItemID:   libraryItemID,
		EpisodeKey:      models.EpisodeKey(episodeID),
		ServerID:        serverID,
		PrincipalID:     principalID,
		UserID:          userID,
		MediaProgressID: mediaProgressID,
		Progress:        progressValue,
		PositionSec:     positionSec,
		DurationSec:     duration,
		Finished:        heard,
		StartedAtMS:     startedAt,
		FinishedAtMS:    finishedAt,
		LastUpdateMS:    now,
		Source:          "local",
		Status:          models.OutboxStatusPending,
	}
	if err := c.db.CreateProgressOutbox(outbox); err != nil {
		return fmt.Errorf("failed to queue outbox row: %w", err)
	}
	metrics.OutboxWrites.Inc()

	c.logger.WithFields(logrus.Fields{
		"target": targetID,
		"item":   libraryItemID,
		"heard":  heard,
	}).Info("Progress change queued")

	if err := c.targetsWriter.RequestManualSync(); err != nil {
		c.logger.WithError(err).Warn("Failed to request manual sync")
	}
	return nil
}

func (c *ProgressController) accountForTarget(owner int, targetID string) (*models.SyncAccount, error) {
	accounts, err := c.db.GetSyncAccounts(owner)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.ResolveTargetID() == targetID {
			return account, nil
		}
	}
	return nil, fmt.Errorf("no account resolves target %q", targetID)
}

// composeIdentity resolves server/principal/user ids: observed target
// state first, then account fields, then the target id itself.
func (c *ProgressController) composeIdentity(account *models.SyncAccount, targetID string) (string, string, string) {
	serverID, principalID, userID := account.ServerID, account.PrincipalID, ""
	if state, err := c.db.GetTargetState(targetID); err == nil && state != nil {
		if state.ServerID != "" {
			serverID = state.ServerID
		}
		if state.PrincipalID != "" {
			principalID = state.PrincipalID
		}
		userID = state.UserID
	}
	if serverID == "" {
		serverID = targetID
	}
	if principalID == "" {
		principalID = targetID
	}
	return serverID, principalID, userID
}

// resolveDuration tries the identity row, then the latest progress row,
// then a live item fetch. Zero when all three fail; a zero duration still
// lets the finished flag carry the intent.
func (c *ProgressController) resolveDuration(ctx context.Context, account *models.SyncAccount, targetID, libraryItemID string, episodeID *string) float64 {
	if episodeID == nil {
		if ident, err := c.db.GetItemIdentity(targetID, libraryItemID); err == nil && ident != nil && ident.DurationSec > 0 {
			return ident.DurationSec
		}
	}
	if latest, err := c.db.GetProgressLatest(targetID, libraryItemID, episodeID); err == nil && latest != nil && latest.DurationSec > 0 {
		return latest.DurationSec
	}

	client, err := c.clientFor(account)
	if err != nil {
		return 0
	}
	detail, err := client.Item(ctx, libraryItemID)
	if err != nil {
		c.logger.WithError(err).WithField("item", libraryItemID).Debug("Duration lookup failed")
		return 0
	}
	if episodeID != nil {
		for idx := range detail.Media.Episodes {
			if detail.Media.Episodes[idx].ID == *episodeID {
				return detail.Media.Episodes[idx].AudioFile.Duration
			}
		}
		return 0
	}
	return detail.Media.Duration
}
