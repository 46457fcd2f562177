package controllers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shelftrack/internal/identity"
	"shelftrack/internal/models"
	"shelftrack/internal/services/audible"
	"shelftrack/internal/services/openlibrary"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"
)

// SearchHit is one open catalog search result
type SearchHit struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ASIN     string `json:"asin,omitempty"`
	ISBN     string `json:"isbn,omitempty"`
	Year     int    `json:"year,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	Source   string `json:"source"`
}

// TrackedController manages manually tracked books
type TrackedController struct {
	db                *models.Database
	audibleClient     *audible.Client
	openlibraryClient *openlibrary.Client
	logger            *logrus.Logger
}

// NewTrackedController creates a new tracked-books controller
func NewTrackedController(db *models.Database, audibleClient *audible.Client, openlibraryClient *openlibrary.Client, logger *logrus.Logger) *TrackedController {
	return &TrackedController{
		db:                db,
		audibleClient:     audibleClient,
		openlibraryClient: openlibraryClient,
		logger:            logger,
	}
}

// List returns an owner's tracked books plus per-status counts
func (c *TrackedController) List(owner int) ([]*models.TrackedBook, map[models.TrackedStatus]int, error) {
	books, err := c.db.GetTrackedBooks(owner)
	if err != nil {
		return nil, nil, err
	}
	counts := map[models.TrackedStatus]int{}
	for _, book := range books {
		counts[book.Status]++
	}
	return books, counts, nil
}

// Add records a manual book, enriching it from the Audible catalog when
// possible
func (c *TrackedController) Add(ctx context.Context, owner int, title, author string) (*models.TrackedBook, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	book := &models.TrackedBook{
		OwnerUserID: owner,
		Title:       title,
		Author:      strings.TrimSpace(author),
		Status:      models.TrackedStatusPlanned,
	}
	c.enrich(ctx, book)

	if err := c.db.UpsertTrackedBook(book); err != nil {
		return nil, fmt.Errorf("failed to save tracked book: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"title":  book.Title,
		"asin":   book.ASIN,
		"source": book.MetadataSource,
	}).Info("Tracked book added")

	return book, nil
}

// MarkHeard flips a tracked book to heard, enriching it first when it
// still has no identifier
func (c *TrackedController) MarkHeard(ctx context.Context, owner int, id uint) (*models.TrackedBook, error) {
	book, err := c.db.GetTrackedBookByID(id)
	if err != nil {
		return nil, err
	}
	if book == nil || book.OwnerUserID != owner {
		return nil, fmt.Errorf("tracked book %d not found", id)
	}

	if book.ASIN == "" {
		c.enrich(ctx, book)
	}
	book.Status = models.TrackedStatusHeard
	book.Progress = 1

	if err := c.db.SaveTrackedBook(book); err != nil {
		return nil, fmt.Errorf("failed to save tracked book: %w", err)
	}
	return book, nil
}

// enrich fills identifiers and series info from the closest Audible hit.
// Books that already carry an ASIN are left alone.
func (c *TrackedController) enrich(ctx context.Context, book *models.TrackedBook) {
	if book.ASIN != "" {
		return
	}

	query := book.Title
	if book.Author != "" {
		query += " " + book.Author
	}
	products, err := c.audibleClient.Search(ctx, query, 10)
	if err != nil {
		c.logger.WithError(err).WithField("title", book.Title).Debug("Enrichment search failed")
		return
	}
	if len(products) == 0 {
		return
	}

	best, bestDistance := -1, -1
	wanted := strings.ToLower(book.Title)
	for idx := range products {
		distance := levenshtein.ComputeDistance(wanted, strings.ToLower(products[idx].Title))
		if best == -1 || distance < bestDistance {
			best, bestDistance = idx, distance
		}
	}

	hit := &products[best]
	book.ASIN = identity.NormalizeIdentifier(hit.ASIN)
	if book.ISBN == "" {
		book.ISBN = identity.NormalizeIdentifier(hit.ISBN)
	}
	if book.Author == "" {
		book.Author = hit.AuthorDisplay()
	}
	if book.SeriesName == "" && len(hit.Series) > 0 {
		book.SeriesName = hit.Series[0].Title
		if seq, err := strconv.ParseFloat(hit.Series[0].Sequence, 64); err == nil {
			book.SeriesIndex = seq
		}
	}
	book.MetadataSource = "audible"
}

// Search runs an open catalog search on the requested provider; Open
// Library is the default.
func (c *TrackedController) Search(ctx context.Context, query, provider string) ([]SearchHit, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "audible":
		products, err := c.audibleClient.Search(ctx, query, 12)
		if err != nil {
			return nil, err
		}
		hits := make([]SearchHit, 0, len(products))
		for idx := range products {
			product := &products[idx]
			hits = append(hits, SearchHit{
				Title:  product.Title,
				Author: product.AuthorDisplay(),
				ASIN:   identity.NormalizeIdentifier(product.ASIN),
				ISBN:   identity.NormalizeIdentifier(product.ISBN),
				Source: "audible",
			})
		}
		return hits, nil
	default:
		books, err := c.openlibraryClient.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		hits := make([]SearchHit, 0, len(books))
		for idx := range books {
			book := &books[idx]
			hits = append(hits, SearchHit{
				Title:    book.Title,
				Author:   book.AuthorDisplay(),
				ISBN:     identity.NormalizeIdentifier(book.FirstISBN()),
				Year:     book.FirstPublishYear,
				CoverURL: book.CoverURL(),
				Source:   "openlibrary",
			})
		}
		return hits, nil
	}
}
