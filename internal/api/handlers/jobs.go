package handlers

import (
	"net/http"

	"shelftrack/internal/controllers"
	"shelftrack/internal/targets"

	"github.com/sirupsen/logrus"
)

// JobsHandler exposes the background jobs as on-demand endpoints
type JobsHandler struct {
	importCtrl    *controllers.ImportController
	cleanupCtrl   *controllers.CleanupController
	progressCtrl  *controllers.ProgressController
	targetsWriter *targets.Writer
	defaultOwner  int
	logger        *logrus.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(
	importCtrl *controllers.ImportController,
	cleanupCtrl *controllers.CleanupController,
	progressCtrl *controllers.ProgressController,
	targetsWriter *targets.Writer,
	defaultOwner int,
	logger *logrus.Logger,
) *JobsHandler {
	return &JobsHandler{
		importCtrl:    importCtrl,
		cleanupCtrl:   cleanupCtrl,
		progressCtrl:  progressCtrl,
		targetsWriter: targetsWriter,
		defaultOwner:  defaultOwner,
		logger:        logger,
	}
}

// Import handles an on-demand import. Query parameters scope the run:
// owner (default: every owner), books, podcasts, enrich (all default true).
func (h *JobsHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts := controllers.ImportOptions{
		Owner:           ownerFrom(r, 0),
		IncludeBooks:    boolParam(r, "books", true),
		IncludePodcasts: boolParam(r, "podcasts", true),
		EnrichPodcasts:  boolParam(r, "enrich", true),
	}
	summary, err := h.importCtrl.ImportAll(r.Context(), opts)
	if err != nil {
		h.logger.WithError(err).Error("Import failed")
		http.Error(w, "Import failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Cleanup handles an on-demand presence refresh and duplicate merge
func (h *JobsHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.cleanupCtrl.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Cleanup failed")
		http.Error(w, "Cleanup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RebuildProgress handles an on-demand progress rebuild from the servers
func (h *JobsHandler) RebuildProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	summary, err := h.progressCtrl.Rebuild(r.Context(), owner)
	if err != nil {
		h.logger.WithError(err).Error("Progress rebuild failed")
		http.Error(w, "Progress rebuild failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SyncNow handles requesting an immediate sync from the scheduler
func (h *JobsHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.targetsWriter.RequestManualSync(); err != nil {
		h.logger.WithError(err).Error("Failed to request manual sync")
		http.Error(w, "Failed to request sync", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "requested"})
}
