package controllers

import (
	"context"
	"fmt"
	"strings"

	"shelftrack/internal/crypto"
	"shelftrack/internal/identity"
	"shelftrack/internal/metrics"
	"shelftrack/internal/models"
	"shelftrack/internal/services/abs"
	"shelftrack/internal/services/itunes"

	"github.com/sirupsen/logrus"
)

// ImportSummary reports one import run
type ImportSummary struct {
	Accounts int `json:"accounts"`
	Books    int `json:"books"`
	Podcasts int `json:"podcasts"`
	Episodes int `json:"episodes"`
	Errors   int `json:"errors"`
}

// ImportOptions scopes one import run
type ImportOptions struct {
	Owner           int // 0 imports every owner
	IncludeBooks    bool
	IncludePodcasts bool
	EnrichPodcasts  bool
}

// DefaultImportOptions imports both media kinds for every owner with
// catalog enrichment on
func DefaultImportOptions() ImportOptions {
	return ImportOptions{IncludeBooks: true, IncludePodcasts: true, EnrichPodcasts: true}
}

// ImportController walks remote libraries into the local catalog
type ImportController struct {
	db           *models.Database
	box          *crypto.Box
	itunesClient *itunes.Client
	ingestor     *Ingestor
	logger       *logrus.Logger
}

// NewImportController creates a new import controller
func NewImportController(db *models.Database, box *crypto.Box, itunesClient *itunes.Client, ingestor *Ingestor, logger *logrus.Logger) *ImportController {
	return &ImportController{
		db:           db,
		box:          box,
		itunesClient: itunesClient,
		ingestor:     ingestor,
		logger:       logger,
	}
}

// clientFor builds a server client for one account
func (c *ImportController) clientFor(account *models.SyncAccount) (*abs.Client, error) {
	token := c.box.Decrypt(account.TokenEncrypted)
	if token == "" {
		return nil, fmt.Errorf("account %q has no usable token", account.AccountName)
	}
	return abs.NewClient(account.BaseURL, token, c.logger)
}

// ImportAll imports the enabled accounts in scope: one owner's, or every
// owner's when the options name none
func (c *ImportController) ImportAll(ctx context.Context, opts ImportOptions) (*ImportSummary, error) {
	var accounts []*models.SyncAccount
	var err error
	if opts.Owner > 0 {
		accounts, err = c.db.GetEnabledSyncAccounts(opts.Owner)
	} else {
		accounts, err = c.db.GetAllEnabledSyncAccounts()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	summary := &ImportSummary{}
	for _, account := range accounts {
		if err := c.importAccount(ctx, account, opts, summary); err != nil {
			c.logger.WithError(err).WithField("account", account.AccountName).
				Error("Account import failed")
			summary.Errors++
			continue
		}
		summary.Accounts++
	}

	c.logger.WithFields(logrus.Fields{
		"accounts": summary.Accounts,
		"books":    summary.Books,
		"podcasts": summary.Podcasts,
		"episodes": summary.Episodes,
		"errors":   summary.Errors,
	}).Info("Catalog import completed")

	return summary, nil
}

// importAccount walks all libraries of one account. A library listing
// failure aborts the account; item-level failures degrade to "no data".
func (c *ImportController) importAccount(ctx context.Context, account *models.SyncAccount, opts ImportOptions, summary *ImportSummary) error {
	client, err := c.clientFor(account)
	if err != nil {
		return err
	}
	targetID := account.ResolveTargetID()

	c.logger.WithFields(logrus.Fields{
		"account": account.AccountName,
		"target":  targetID,
	}).Info("Importing account")

	// Record the observed user id so outbox composition has it later.
	if user, err := client.Me(ctx); err != nil {
		c.logger.WithError(err).Warn("Failed to fetch user, continuing")
	} else {
		state := &models.TargetState{
			TargetID:    targetID,
			ServerID:    account.ServerID,
			PrincipalID: account.PrincipalID,
			UserID:      user.ID,
		}
		if err := c.db.UpsertTargetState(state); err != nil {
			c.logger.WithError(err).Warn("Failed to record target state")
		}
	}

	libraries, err := client.Libraries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list libraries: %w", err)
	}

	for _, library := range libraries {
		if err := c.importLibrary(ctx, client, account, targetID, library, opts, summary); err != nil {
			return err
		}
	}

	return nil
}

// importLibrary paginates one library and dispatches by media type
func (c *ImportController) importLibrary(ctx context.Context, client *abs.Client, account *models.SyncAccount, targetID string, library abs.Library, opts ImportOptions, summary *ImportSummary) error {
	switch library.MediaType {
	case "podcast":
		if !opts.IncludePodcasts {
			return nil
		}
	case "book":
		if !opts.IncludeBooks {
			return nil
		}
	}

	for page := 0; ; page++ {
		itemsPage, err := client.LibraryItems(ctx, library.ID, page)
		if err != nil {
			return fmt.Errorf("failed to list library %s page %d: %w", library.ID, page, err)
		}
		if len(itemsPage.Results) == 0 {
			break
		}

		for idx := range itemsPage.Results {
			item := &itemsPage.Results[idx]
			// No id or no title means no identity can be derived; skip the
			// record.
			if item.ID == "" || strings.TrimSpace(item.Media.Metadata.Title) == "" {
				continue
			}
			switch item.MediaType {
			case "podcast":
				if opts.IncludePodcasts {
					c.importPodcast(ctx, client, account, targetID, item, opts.EnrichPodcasts, summary)
				}
			default:
				if opts.IncludeBooks {
					c.importBook(ctx, client, account, targetID, item, summary)
				}
			}
		}

		if len(itemsPage.Results) < abs.PageLimit {
			break
		}
	}
	return nil
}

// importBook upserts one book plus its identity and backfills progress
func (c *ImportController) importBook(ctx context.Context, client *abs.Client, account *models.SyncAccount, targetID string, item *abs.LibraryItem, summary *ImportSummary) {
	meta := &item.Media.Metadata

	collected := &models.CollectedItem{
		OwnerUserID:   account.OwnerUserID,
		TargetID:      targetID,
		LibraryItemID: item.ID,
		MediaType:     models.MediaTypeBook,
		Title:         meta.Title,
		Author:        meta.AuthorDisplay(),
		SeriesName:    meta.SeriesName,
		Year:          int(meta.PublishedYear),
		ASIN:          identity.NormalizeIdentifier(string(meta.ASIN)),
		CoverURL:      item.Media.CoverPath,
		Status:        models.CollectionStatusCollected,
		Source:        "abs",
	}
	if err := c.db.UpsertCollectedItem(collected); err != nil {
		c.logger.WithError(err).WithField("item", item.ID).Error("Failed to upsert book")
		summary.Errors++
		metrics.ImportErrors.Inc()
		return
	}

	identityRow := &models.ItemIdentity{
		TargetID:      targetID,
		LibraryItemID: item.ID,
		CanonicalKey: identity.CanonicalKey(string(meta.ASIN), string(meta.ISBN),
			meta.Title, meta.AuthorDisplay(), item.Media.Duration),
		ASIN:        identity.NormalizeIdentifier(string(meta.ASIN)),
		ISBN:        identity.NormalizeIdentifier(string(meta.ISBN)),
		Title:       meta.Title,
		Author:      meta.AuthorDisplay(),
		SeriesName:  meta.SeriesName,
		Year:        int(meta.PublishedYear),
		DurationSec: item.Media.Duration,
	}
	if err := c.db.UpsertItemIdentity(identityRow); err != nil {
		c.logger.WithError(err).WithField("item", item.ID).Error("Failed to upsert identity")
		summary.Errors++
		metrics.ImportErrors.Inc()
		return
	}

	summary.Books++
	metrics.BooksImported.Inc()

	// Per-item progress backfill. Missing progress is normal for unplayed
	// items.
	progress := client.Progress(ctx, item.ID)
	if progress == nil || (progress.Progress <= 0 && !progress.IsFinished) {
		return
	}
	c.recordProgress(targetID, item.ID, progress)
}

// recordProgress upserts the latest row and appends history
func (c *ImportController) recordProgress(targetID, libraryItemID string, progress *abs.MediaProgress) {
	latest := &models.ProgressLatest{
		TargetID:        targetID,
		LibraryItemID:   libraryItemID,
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
		c.logger.WithError(err).WithField("item", libraryItemID).Error("Failed to upsert progress")
		return
	}
	if err := c.db.AppendProgressHistory(latest.HistoryEntry(latest.UpdatedAt)); err != nil {
		c.logger.WithError(err).WithField("item", libraryItemID).Error("Failed to append history")
	}
}

// importPodcast upserts one show, resolves its episode list and garbage
// collects episodes gone from every source
func (c *ImportController) importPodcast(ctx context.Context, client *abs.Client, account *models.SyncAccount, targetID string, item *abs.LibraryItem, enrich bool, summary *ImportSummary) {
	meta := &item.Media.Metadata

	show := &models.PodcastShow{
		OwnerUserID:   account.OwnerUserID,
		TargetID:      targetID,
		LibraryItemID: item.ID,
		Title:         meta.Title,
		Author:        meta.AuthorDisplay(),
		FeedURL:       meta.FeedURL,
		ImageURL:      meta.ImageURL,
		ITunesID:      string(meta.ITunesID),
		ITunesPageURL: meta.ITunesPageURL,
		ReleaseDate:   meta.ReleaseDate,
		Language:      meta.Language,
		Source:        "abs",
	}

	// Catalog enrichment only when enabled and the server metadata is
	// incomplete.
	if enrich && (show.ImageURL == "" || show.ITunesID == "") {
		if podcast, err := c.itunesClient.LookupPodcast(ctx, show.Title); err != nil {
			c.logger.WithError(err).WithField("show", show.Title).Debug("iTunes lookup failed")
		} else if podcast != nil {
			if show.ImageURL == "" {
				show.ImageURL = podcast.ArtworkURL
			}
			if show.ITunesID == "" && podcast.CollectionID != 0 {
				show.ITunesID = fmt.Sprintf("%d", podcast.CollectionID)
			}
			if show.ITunesPageURL == "" {
				show.ITunesPageURL = podcast.PageURL
			}
			if show.FeedURL == "" {
				show.FeedURL = podcast.FeedURL
			}
			if show.ReleaseDate == "" {
				show.ReleaseDate = podcast.ReleaseDate
			}
		}
	}

	if err := c.db.UpsertPodcastShow(show); err != nil {
		c.logger.WithError(err).WithField("item", item.ID).Error("Failed to upsert show")
		summary.Errors++
		metrics.ImportErrors.Inc()
		return
	}
	summary.Podcasts++
	metrics.PodcastsImported.Inc()

	// The minified listing has no episodes; fetch the full detail.
	var native []abs.Episode
	if detail, err := client.Item(ctx, item.ID); err != nil {
		c.logger.WithError(err).WithField("item", item.ID).Warn("Failed to fetch item detail")
		summary.Errors++
		metrics.ImportErrors.Inc()
	} else {
		native = detail.Media.Episodes
	}

	episodes := c.ingestor.Ingest(ctx, show, native)
	keep := make([]string, 0, len(episodes))
	for _, episode := range episodes {
		episode.OwnerUserID = account.OwnerUserID
		episode.TargetID = targetID
		episode.LibraryItemID = item.ID
		if strings.TrimSpace(episode.EpisodeID) == "" {
			continue
		}
		if err := c.db.UpsertPodcastEpisode(episode); err != nil {
			c.logger.WithError(err).WithField("episode", episode.EpisodeID).
				Error("Failed to upsert episode")
			summary.Errors++
			metrics.ImportErrors.Inc()
			continue
		}
		keep = append(keep, episode.EpisodeID)
		summary.Episodes++
		metrics.EpisodesImported.Inc()
	}

	// Drop episode rows no source knows anymore, but never wipe the show
	// because every source failed.
	if len(keep) > 0 {
		if err := c.db.DeleteStaleEpisodes(account.OwnerUserID, targetID, item.ID, keep); err != nil {
			c.logger.WithError(err).WithField("item", item.ID).Error("Failed to prune episodes")
		}
	}
}
