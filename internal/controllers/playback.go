package controllers

import (
	"context"
	"fmt"

	"shelftrack/internal/crypto"
	"shelftrack/internal/models"
	"shelftrack/internal/services/abs"

	"github.com/sirupsen/logrus"
)

// PlaybackController kicks off playback sessions and proxies covers
type PlaybackController struct {
	db     *models.Database
	box    *crypto.Box
	logger *logrus.Logger
}

// NewPlaybackController creates a new playback controller
func NewPlaybackController(db *models.Database, box *crypto.Box, logger *logrus.Logger) *PlaybackController {
	return &PlaybackController{db: db, box: box, logger: logger}
}

func (c *PlaybackController) clientFor(owner int, targetID string) (*abs.Client, error) {
	accounts, err := c.db.GetSyncAccounts(owner)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.ResolveTargetID() != targetID {
			continue
		}
		token := c.box.Decrypt(account.TokenEncrypted)
		if token == "" {
			return nil, fmt.Errorf("account %q has no usable token", account.AccountName)
		}
		return abs.NewClient(account.BaseURL, token, c.logger)
	}
	return nil, fmt.Errorf("no account resolves target %q", targetID)
}

// Open starts playback of an item (or one of its episodes) and returns the
// browser URL. The play call is best effort; the URL comes back even when
// it fails.
func (c *PlaybackController) Open(ctx context.Context, owner int, targetID, libraryItemID string, episodeID *string) (string, error) {
	client, err := c.clientFor(owner, targetID)
	if err != nil {
		return "", err
	}

	if err := client.Play(ctx, libraryItemID, episodeID); err != nil {
		c.logger.WithError(err).WithField("item", libraryItemID).
			Debug("Playback kick-off failed")
	}
	return client.WebURL(libraryItemID), nil
}

// OpenNextEpisode resolves the next unfinished episode of a show and opens
// it. Present episodes are preferred so playback can actually start.
func (c *PlaybackController) OpenNextEpisode(ctx context.Context, owner int, targetID, libraryItemID string) (string, error) {
	episodes, err := c.db.GetPodcastEpisodes(owner, targetID, libraryItemID)
	if err != nil {
		return "", err
	}
	progressRows, err := c.db.GetProgressByTargets([]string{targetID})
	if err != nil {
		return "", err
	}
	progressByKey := map[string]*models.ProgressLatest{}
	for _, row := range progressRows {
		progressByKey[row.TargetID+"|"+row.LibraryItemID+"|"+row.EpisodeKey] = row
	}

	next, _ := nextEpisode(episodes, targetID, libraryItemID, progressByKey)
	if next == nil {
		return "", fmt.Errorf("show %s has no next episode", libraryItemID)
	}

	var episodeRef *string
	if next.NativeEpisodeID != "" {
		episodeRef = &next.NativeEpisodeID
	}
	return c.Open(ctx, owner, targetID, libraryItemID, episodeRef)
}

// Cover proxies the cover image of an item through the stored credentials
func (c *PlaybackController) Cover(ctx context.Context, owner int, targetID, libraryItemID string) ([]byte, string, error) {
	client, err := c.clientFor(owner, targetID)
	if err != nil {
		return nil, "", err
	}
	return client.Cover(ctx, libraryItemID)
}
