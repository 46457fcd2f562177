package handlers

import (
	"net/http"

	"shelftrack/internal/controllers"

	"github.com/sirupsen/logrus"
)

// HomeHandler serves the recommendation view
type HomeHandler struct {
	recommend    *controllers.RecommendController
	defaultOwner int
	logger       *logrus.Logger
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(recommend *controllers.RecommendController, defaultOwner int, logger *logrus.Logger) *HomeHandler {
	return &HomeHandler{
		recommend:    recommend,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// ServeHTTP handles the home endpoint
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	view, err := h.recommend.BuildHome(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build home view")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
