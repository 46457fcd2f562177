// Package openlibrary searches the Open Library catalog.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const searchURL = "https://openlibrary.org/search.json"

// Book is one search hit
type Book struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBNs            []string `json:"isbn"`
	CoverID          int64    `json:"cover_i"`
}

// AuthorDisplay joins the author names
func (b *Book) AuthorDisplay() string {
	return strings.Join(b.AuthorNames, ", ")
}

// FirstISBN returns the first listed ISBN, empty when none
func (b *Book) FirstISBN() string {
	if len(b.ISBNs) == 0 {
		return ""
	}
	return b.ISBNs[0]
}

// CoverURL builds the medium cover image URL, empty when no cover exists
func (b *Book) CoverURL() string {
	if b.CoverID == 0 {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", b.CoverID)
}

type searchResponse struct {
	Docs []Book `json:"docs"`
}

// Client queries the Open Library search API
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Open Library client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Search queries the catalog, returning at most twelve hits
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "12")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openlibrary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode openlibrary response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(parsed.Docs),
	}).Debug("Open Library search completed")

	return parsed.Docs, nil
}
