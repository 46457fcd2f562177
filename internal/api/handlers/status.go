package handlers

import (
	"net/http"

	"shelftrack/internal/models"

	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db           *models.Database
	defaultOwner int
	logger       *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, defaultOwner int, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:           db,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Accounts        int            `json:"accounts"`
	EnabledAccounts int            `json:"enabled_accounts"`
	CollectedItems  int            `json:"collected_items"`
	ItemsByType     map[string]int `json:"items_by_type"`
	ItemsByStatus   map[string]int `json:"items_by_status"`
	TrackedBooks    int            `json:"tracked_books"`
	OutboxPending   int64          `json:"outbox_pending"`
	OutboxFailed    int64          `json:"outbox_failed"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	accounts, err := h.db.GetSyncAccounts(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get accounts")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items, err := h.db.GetCollectedItems(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get collected items")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	tracked, err := h.db.GetTrackedBooks(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get tracked books")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		Accounts:       len(accounts),
		CollectedItems: len(items),
		TrackedBooks:   len(tracked),
		ItemsByType:    make(map[string]int),
		ItemsByStatus:  make(map[string]int),
	}
	for _, account := range accounts {
		if account.Enabled {
			response.EnabledAccounts++
		}
	}
	for _, item := range items {
		response.ItemsByType[string(item.MediaType)]++
		response.ItemsByStatus[string(item.Status)]++
	}

	if pending, err := h.db.CountOutbox(models.OutboxStatusPending); err == nil {
		response.OutboxPending = pending
	}
	if failed, err := h.db.CountOutbox(models.OutboxStatusFailed); err == nil {
		response.OutboxFailed = failed
	}

	writeJSON(w, http.StatusOK, response)
}
