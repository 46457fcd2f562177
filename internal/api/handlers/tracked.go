package handlers

import (
	"net/http"

	"shelftrack/internal/controllers"

	"github.com/sirupsen/logrus"
)

// TrackedHandler handles the wishlist of books heard elsewhere
type TrackedHandler struct {
	tracked      *controllers.TrackedController
	defaultOwner int
	logger       *logrus.Logger
}

// NewTrackedHandler creates a new tracked books handler
func NewTrackedHandler(tracked *controllers.TrackedController, defaultOwner int, logger *logrus.Logger) *TrackedHandler {
	return &TrackedHandler{
		tracked:      tracked,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// ServeHTTP dispatches tracked book requests by method
func (h *TrackedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TrackedHandler) list(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r, h.defaultOwner)
	books, counts, err := h.tracked.List(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tracked books")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"books":  books,
		"counts": counts,
	})
}

func (h *TrackedHandler) add(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r, h.defaultOwner)

	var input struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	if err := readJSON(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	book, err := h.tracked.Add(r.Context(), owner, input.Title, input.Author)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// MarkHeard handles marking a tracked book as heard
func (h *TrackedHandler) MarkHeard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	var input struct {
		ID uint `json:"id"`
	}
	if err := readJSON(r, &input); err != nil || input.ID == 0 {
		http.Error(w, "Missing or invalid id", http.StatusBadRequest)
		return
	}

	book, err := h.tracked.MarkHeard(r.Context(), owner, input.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Search handles metadata lookups against the external catalogs
func (h *TrackedHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}
	provider := r.URL.Query().Get("provider")

	hits, err := h.tracked.Search(r.Context(), query, provider)
	if err != nil {
		h.logger.WithError(err).Error("Metadata search failed")
		http.Error(w, "Search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}
