package controllers

import (
	"context"
	"fmt"
	"sort"

	"shelftrack/internal/crypto"
	"shelftrack/internal/identity"
	"shelftrack/internal/metrics"
	"shelftrack/internal/models"
	"shelftrack/internal/services/abs"

	"github.com/sirupsen/logrus"
)

// CleanupSummary reports one cleanup run
type CleanupSummary struct {
	Targets int `json:"targets"`
	Groups  int `json:"duplicate_groups"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// CleanupController reconciles collected rows against live remote state and
// merges duplicates
type CleanupController struct {
	db     *models.Database
	box    *crypto.Box
	logger *logrus.Logger
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(db *models.Database, box *crypto.Box, logger *logrus.Logger) *CleanupController {
	return &CleanupController{
		db:     db,
		box:    box,
		logger: logger,
	}
}

// Run refreshes presence for every enabled account, then merges duplicates
// per owner. Idempotent on unchanged remote state.
func (c *CleanupController) Run(ctx context.Context) (*CleanupSummary, error) {
	accounts, err := c.db.GetAllEnabledSyncAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	summary := &CleanupSummary{}
	owners := map[int]bool{}
	for _, account := range accounts {
		owners[account.OwnerUserID] = true
		if err := c.refreshPresence(ctx, account); err != nil {
			c.logger.WithError(err).WithField("account", account.AccountName).
				Error("Presence refresh failed")
			summary.Errors++
			continue
		}
		summary.Targets++
	}

	for owner := range owners {
		groups, deleted, err := c.DedupOwner(owner)
		if err != nil {
			c.logger.WithError(err).WithField("owner", owner).Error("Dedup failed")
			summary.Errors++
			continue
		}
		summary.Groups += groups
		summary.Deleted += deleted
	}

	c.logger.WithFields(logrus.Fields{
		"targets": summary.Targets,
		"groups":  summary.Groups,
		"deleted": summary.Deleted,
		"errors":  summary.Errors,
	}).Info("Cleanup completed")

	return summary, nil
}

// refreshPresence marks all book rows on a target missing, then flips the
// ids still present on the server back to collected.
func (c *CleanupController) refreshPresence(ctx context.Context, account *models.SyncAccount) error {
	token := c.box.Decrypt(account.TokenEncrypted)
	if token == "" {
		return fmt.Errorf("account %q has no usable token", account.AccountName)
	}
	client, err := abs.NewClient(account.BaseURL, token, c.logger)
	if err != nil {
		return err
	}
	targetID := account.ResolveTargetID()

	live, err := c.fetchLiveBookIDs(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to list live items: %w", err)
	}

	if err := c.db.MarkBooksMissing(targetID); err != nil {
		return fmt.Errorf("failed to mark books missing: %w", err)
	}
	if err := c.db.MarkBooksCollected(targetID, live); err != nil {
		return fmt.Errorf("failed to mark books collected: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"target": targetID,
		"live":   len(live),
	}).Debug("Presence refreshed")

	return nil
}

// fetchLiveBookIDs paginates every non-podcast library to a flat id set
func (c *CleanupController) fetchLiveBookIDs(ctx context.Context, client *abs.Client) ([]string, error) {
	libraries, err := client.Libraries(ctx)
	if err != nil {
		return nil, err
	}

	var live []string
	for _, library := range libraries {
		if library.MediaType == "podcast" {
			continue
		}
		for page := 0; ; page++ {
			itemsPage, err := client.LibraryItems(ctx, library.ID, page)
			if err != nil {
				return nil, err
			}
			if len(itemsPage.Results) == 0 {
				break
			}
			for _, item := range itemsPage.Results {
				live = append(live, item.ID)
			}
			if len(itemsPage.Results) < abs.PageLimit {
				break
			}
		}
	}
	return live, nil
}

// DedupOwner groups an owner's book rows by dedup key, keeps the richest
// row per group and deletes the rest. Returns group and deletion counts.
func (c *CleanupController) DedupOwner(owner int) (int, int, error) {
	books, err := c.db.GetCollectedBooks(owner)
	if err != nil {
		return 0, 0, err
	}

	targets := map[string]bool{}
	for _, book := range books {
		targets[book.TargetID] = true
	}
	targetIDs := make([]string, 0, len(targets))
	for target := range targets {
		targetIDs = append(targetIDs, target)
	}

	identities, err := c.db.GetIdentitiesByTargets(targetIDs)
	if err != nil {
		return 0, 0, err
	}
	identityByItem := map[string]*models.ItemIdentity{}
	for _, row := range identities {
		identityByItem[row.TargetID+"|"+row.LibraryItemID] = row
	}

	groups := map[string][]*models.CollectedItem{}
	for _, book := range books {
		ident := identityByItem[book.TargetID+"|"+book.LibraryItemID]
		asin, isbn := book.ASIN, ""
		if ident != nil {
			if asin == "" {
				asin = ident.ASIN
			}
			isbn = ident.ISBN
		}
		key := identity.DedupKey(asin, isbn, book.Title, book.Author, book.Year)
		groups[key] = append(groups[key], book)
	}

	duplicateGroups, deleted := 0, 0
	var losers []uint
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		duplicateGroups++

		sortGroupByScore(group, identityByItem)
		keeper := group[0]
		for _, loser := range group[1:] {
			losers = append(losers, loser.ID)
			deleted++
		}

		c.logger.WithFields(logrus.Fields{
			"key":    key,
			"keeper": keeper.LibraryItemID,
			"losers": len(group) - 1,
		}).Info("Merging duplicate group")
	}

	if err := c.db.DeleteCollectedItems(losers); err != nil {
		return duplicateGroups, 0, fmt.Errorf("failed to delete duplicates: %w", err)
	}
	metrics.DuplicatesMerged.Add(float64(deleted))

	return duplicateGroups, deleted, nil
}

// sortGroupByScore orders a duplicate group best-first: richest metadata,
// then most recently updated, then highest row id.
func sortGroupByScore(group []*models.CollectedItem, identityByItem map[string]*models.ItemIdentity) {
	sort.SliceStable(group, func(a, b int) bool {
		scoreA := scoreCollected(group[a], identityByItem[group[a].TargetID+"|"+group[a].LibraryItemID])
		scoreB := scoreCollected(group[b], identityByItem[group[b].TargetID+"|"+group[b].LibraryItemID])
		if scoreA != scoreB {
			return scoreA > scoreB
		}
		if !group[a].UpdatedAt.Equal(group[b].UpdatedAt) {
			return group[a].UpdatedAt.After(group[b].UpdatedAt)
		}
		return group[a].ID > group[b].ID
	})
}

// scoreCollected weighs how much a row is worth keeping. Strong
// identifiers dominate, presence beats absence, display metadata breaks
// remaining ties.
func scoreCollected(item *models.CollectedItem, ident *models.ItemIdentity) int {
	score := 0
	if item.Status == models.CollectionStatusCollected {
		score += 8
	}
	asin, isbn := item.ASIN, ""
	if ident != nil {
		if asin == "" {
			asin = ident.ASIN
		}
		isbn = ident.ISBN
	}
	if asin != "" {
		score += 16
	}
	if isbn != "" {
		score += 12
	}
	if item.CoverURL != "" {
		score += 4
	}
	if item.SeriesName != "" {
		score += 2
	}
	if item.Year != 0 {
		score++
	}
	return score
}
