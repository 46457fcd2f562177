// Package targets maintains the artifacts shared with the external sync
// worker: the targets.json inventory, the manual-sync trigger file and the
// interval runtime setting.
package targets

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"shelftrack/internal/crypto"
	"shelftrack/internal/models"

	"github.com/sirupsen/logrus"
)

// Setting keys shared with the sync worker.
const (
	SettingSyncInterval = "sync_interval_seconds"
	SettingManualSyncAt = "manual_sync_requested_at"
)

// Entry is one target in targets.json
type Entry struct {
	ID          string `json:"id"`
	ServerID    string `json:"serverId"`
	PrincipalID string `json:"principalId"`
	URL         string `json:"url"`
	Token       string `json:"token"`
}

// Writer renders the sync-worker artifacts from account state
type Writer struct {
	db          *models.Database
	box         *crypto.Box
	path        string
	triggerPath string
	logger      *logrus.Logger
}

// NewWriter creates a new targets writer
func NewWriter(db *models.Database, box *crypto.Box, path, triggerPath string, logger *logrus.Logger) *Writer {
	return &Writer{
		db:          db,
		box:         box,
		path:        path,
		triggerPath: triggerPath,
		logger:      logger,
	}
}

// WriteTargets writes targets.json with one entry per enabled account.
// Owners with exactly one account also get a legacy "u<owner>" alias so
// older worker configs keep resolving.
func (w *Writer) WriteTargets() error {
	accounts, err := w.db.GetAllEnabledSyncAccounts()
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	entries := make([]Entry, 0, len(accounts))
	accountsPerOwner := map[int][]*models.SyncAccount{}
	for _, account := range accounts {
		accountsPerOwner[account.OwnerUserID] = append(accountsPerOwner[account.OwnerUserID], account)
		entries = append(entries, w.entryFor(account, account.ResolveTargetID()))
	}

	for owner, owned := range accountsPerOwner {
		if len(owned) != 1 {
			continue
		}
		alias := w.entryFor(owned[0], fmt.Sprintf("u%d", owner))
		entries = append(entries, alias)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal targets: %w", err)
	}

	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write targets file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("failed to replace targets file: %w", err)
	}

	w.logger.WithField("targets", len(entries)).Info("Targets file written")
	return nil
}

func (w *Writer) entryFor(account *models.SyncAccount, id string) Entry {
	entry := Entry{
		ID:          id,
		ServerID:    account.ServerID,
		PrincipalID: account.PrincipalID,
		URL:         account.BaseURL,
		Token:       w.box.Decrypt(account.TokenEncrypted),
	}
	if state, err := w.db.GetTargetState(account.ResolveTargetID()); err == nil && state != nil {
		if state.ServerID != "" {
			entry.ServerID = state.ServerID
		}
		if state.PrincipalID != "" {
			entry.PrincipalID = state.PrincipalID
		}
	}
	if entry.ServerID == "" {
		entry.ServerID = account.ResolveTargetID()
	}
	return entry
}

// RequestManualSync drops the trigger file and records the request time so
// the worker picks the run up on its next poll.
func (w *Writer) RequestManualSync() error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := os.WriteFile(w.triggerPath, []byte(now+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write trigger file: %w", err)
	}
	if err := w.db.SetRuntimeSetting(SettingManualSyncAt, now); err != nil {
		return fmt.Errorf("failed to record manual sync request: %w", err)
	}
	w.logger.Info("Manual sync requested")
	return nil
}

// RecalcInterval keeps the worker interval setting at the minimum of the
// current value and the configured default, seeding it when absent.
func (w *Writer) RecalcInterval(defaultSeconds int) error {
	current, err := w.db.GetRuntimeSetting(SettingSyncInterval)
	if err != nil {
		return err
	}
	effective := defaultSeconds
	if current != "" {
		if parsed, err := strconv.Atoi(current); err == nil && parsed > 0 && parsed < effective {
			effective = parsed
		}
	}
	return w.db.SetRuntimeSetting(SettingSyncInterval, strconv.Itoa(effective))
}
