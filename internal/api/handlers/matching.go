package handlers

import (
	"net/http"

	"shelftrack/internal/controllers"

	"github.com/sirupsen/logrus"
)

// MatchingHandler serves the cross-server matching table and accepts
// manual matches
type MatchingHandler struct {
	matching     *controllers.MatchingController
	defaultOwner int
	logger       *logrus.Logger
}

// NewMatchingHandler creates a new matching handler
func NewMatchingHandler(matching *controllers.MatchingController, defaultOwner int, logger *logrus.Logger) *MatchingHandler {
	return &MatchingHandler{
		matching:     matching,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// ServeHTTP handles the matching table endpoint
func (h *MatchingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	rows, err := h.matching.Rows(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build matching rows")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ManualMatch handles linking an unmatched item to a reference item
func (h *MatchingHandler) ManualMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	var input struct {
		SourceTarget string `json:"source_target"`
		SourceItem   string `json:"source_item"`
		RefTarget    string `json:"ref_target"`
		RefItem      string `json:"ref_item"`
	}
	if err := readJSON(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.SourceTarget == "" || input.SourceItem == "" || input.RefTarget == "" || input.RefItem == "" {
		http.Error(w, "All four item references are required", http.StatusBadRequest)
		return
	}

	if err := h.matching.ManualMatch(owner, input.SourceTarget, input.SourceItem, input.RefTarget, input.RefItem); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "matched"})
}
