package handlers

import (
	"net/http"
	"strings"

	"shelftrack/internal/controllers"

	"github.com/sirupsen/logrus"
)

// PlaybackHandler handles progress marks, playback hand-off and covers
type PlaybackHandler struct {
	progressCtrl *controllers.ProgressController
	playbackCtrl *controllers.PlaybackController
	defaultOwner int
	logger       *logrus.Logger
}

// NewPlaybackHandler creates a new playback handler
func NewPlaybackHandler(
	progressCtrl *controllers.ProgressController,
	playbackCtrl *controllers.PlaybackController,
	defaultOwner int,
	logger *logrus.Logger,
) *PlaybackHandler {
	return &PlaybackHandler{
		progressCtrl: progressCtrl,
		playbackCtrl: playbackCtrl,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

type markRequest struct {
	TargetID      string  `json:"target_id"`
	LibraryItemID string  `json:"library_item_id"`
	EpisodeID     *string `json:"episode_id,omitempty"`
}

func (h *PlaybackHandler) mark(w http.ResponseWriter, r *http.Request, heard bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	var input markRequest
	if err := readJSON(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.TargetID == "" || input.LibraryItemID == "" {
		http.Error(w, "target_id and library_item_id are required", http.StatusBadRequest)
		return
	}

	var err error
	if heard {
		err = h.progressCtrl.MarkHeard(r.Context(), owner, input.TargetID, input.LibraryItemID, input.EpisodeID)
	} else {
		err = h.progressCtrl.MarkUnheard(r.Context(), owner, input.TargetID, input.LibraryItemID, input.EpisodeID)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MarkHeard handles marking an item or episode as heard
func (h *PlaybackHandler) MarkHeard(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, true)
}

// MarkUnheard handles resetting an item or episode to unheard
func (h *PlaybackHandler) MarkUnheard(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, false)
}

// OpenNext handles resolving and opening a show's next episode
func (h *PlaybackHandler) OpenNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	var input markRequest
	if err := readJSON(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.TargetID == "" || input.LibraryItemID == "" {
		http.Error(w, "target_id and library_item_id are required", http.StatusBadRequest)
		return
	}

	url, err := h.playbackCtrl.OpenNextEpisode(r.Context(), owner, input.TargetID, input.LibraryItemID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Cover proxies a cover image. The path is /cover/{target}/{item}.
func (h *PlaybackHandler) Cover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	owner := ownerFrom(r, h.defaultOwner)

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/cover/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "Expected /cover/{target}/{item}", http.StatusBadRequest)
		return
	}

	data, contentType, err := h.playbackCtrl.Cover(r.Context(), owner, parts[0], parts[1])
	if err != nil {
		h.logger.WithError(err).WithField("item", parts[1]).Debug("Cover fetch failed")
		http.Error(w, "Cover not available", http.StatusNotFound)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
