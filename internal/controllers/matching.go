package controllers

import (
	"fmt"

	"shelftrack/internal/identity"
	"shelftrack/internal/models"
	"shelftrack/internal/targets"

	"github.com/sirupsen/logrus"
)

// MatchingRow is one item in the matching view
type MatchingRow struct {
	TargetID      string `json:"target_id"`
	LibraryItemID string `json:"library_item_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ASIN          string `json:"asin,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	CanonicalKey  string `json:"canonical_key,omitempty"`
	Unmatched     bool   `json:"unmatched"`
}

// MatchingController exposes identity state and manual match corrections
type MatchingController struct {
	db            *models.Database
	targetsWriter *targets.Writer
	logger        *logrus.Logger
}

// NewMatchingController creates a new matching controller
func NewMatchingController(db *models.Database, targetsWriter *targets.Writer, logger *logrus.Logger) *MatchingController {
	return &MatchingController{
		db:            db,
		targetsWriter: targetsWriter,
		logger:        logger,
	}
}

// Rows lists every book of an owner with its normalized identifiers. A row
// is unmatched when it has no canonical key, no ASIN and no ISBN.
func (c *MatchingController) Rows(owner int) ([]MatchingRow, error) {
	books, err := c.db.GetCollectedBooks(owner)
	if err != nil {
		return nil, err
	}

	targetSet := map[string]bool{}
	for _, book := range books {
		targetSet[book.TargetID] = true
	}
	targetIDs := make([]string, 0, len(targetSet))
	for target := range targetSet {
		targetIDs = append(targetIDs, target)
	}
	identities, err := c.db.GetIdentitiesByTargets(targetIDs)
	if err != nil {
		return nil, err
	}
	identityByItem := map[string]*models.ItemIdentity{}
	for _, row := range identities {
		identityByItem[row.TargetID+"|"+row.LibraryItemID] = row
	}

	rows := make([]MatchingRow, 0, len(books))
	for _, book := range books {
		row := MatchingRow{
			TargetID:      book.TargetID,
			LibraryItemID: book.LibraryItemID,
			Title:         book.Title,
			Author:        book.Author,
			ASIN:          identity.NormalizeIdentifier(book.ASIN),
		}
		if ident := identityByItem[book.TargetID+"|"+book.LibraryItemID]; ident != nil {
			if row.ASIN == "" {
				row.ASIN = ident.ASIN
			}
			row.ISBN = ident.ISBN
			row.CanonicalKey = ident.CanonicalKey
		}
		row.Unmatched = row.CanonicalKey == "" && row.ASIN == "" && row.ISBN == ""
		rows = append(rows, row)
	}
	return rows, nil
}

// ManualMatch copies the reference item's canonical identity onto the
// source item, filling only the source's empty fields, then requests a
// sync so the correction propagates.
func (c *MatchingController) ManualMatch(owner int, sourceTarget, sourceItem, refTarget, refItem string) error {
	ref, err := c.db.GetItemIdentity(refTarget, refItem)
	if err != nil {
		return err
	}
	if ref == nil {
		return fmt.Errorf("reference item %s/%s has no identity", refTarget, refItem)
	}

	canonicalKey := ref.CanonicalKey
	if canonicalKey == "" {
		canonicalKey = identity.CanonicalKey(ref.ASIN, ref.ISBN, ref.Title, ref.Author, ref.DurationSec)
	}

	source, err := c.db.GetItemIdentity(sourceTarget, sourceItem)
	if err != nil {
		return err
	}
	if source == nil {
		source = &models.ItemIdentity{
			TargetID:      sourceTarget,
			LibraryItemID: sourceItem,
		}
	}

	source.CanonicalKey = canonicalKey
	if source.ASIN == "" {
		source.ASIN = ref.ASIN
	}
	if source.ISBN == "" {
		source.ISBN = ref.ISBN
	}
	if source.Title == "" {
		source.Title = ref.Title
	}
	if source.Author == "" {
		source.Author = ref.Author
	}
	if source.SeriesName == "" {
		source.SeriesName = ref.SeriesName
	}
	if source.Year == 0 {
		source.Year = ref.Year
	}
	if source.DurationSec == 0 {
		source.DurationSec = ref.DurationSec
	}

	if err := c.db.UpsertItemIdentity(source); err != nil {
		return fmt.Errorf("failed to save matched identity: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"source": sourceTarget + "/" + sourceItem,
		"ref":    refTarget + "/" + refItem,
		"key":    canonicalKey,
	}).Info("Manual match applied")

	if err := c.targetsWriter.RequestManualSync(); err != nil {
		c.logger.WithError(err).Warn("Failed to request manual sync")
	}
	return nil
}
