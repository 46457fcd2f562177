// Package itunes looks up podcast metadata on the public iTunes search API.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const searchURL = "https://itunes.apple.com/search"

// Podcast is one catalog hit
type Podcast struct {
	CollectionID   int64  `json:"collectionId"`
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	FeedURL        string `json:"feedUrl"`
	ArtworkURL     string `json:"artworkUrl600"`
	PageURL        string `json:"collectionViewUrl"`
	ReleaseDate    string `json:"releaseDate"`
}

type searchResponse struct {
	ResultCount int       `json:"resultCount"`
	Results     []Podcast `json:"results"`
}

// Client queries the iTunes search API with an in-process response cache;
// repeated imports of the same catalog should not hammer the public API.
type Client struct {
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new iTunes client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      gocache.New(6*time.Hour, 30*time.Minute),
		logger:     logger,
	}
}

// LookupPodcast searches for one podcast by title. Returns nil without
// error when nothing matches; lookups are enrichment only and must never
// fail an import.
func (c *Client) LookupPodcast(ctx context.Context, term string) (*Podcast, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	if cached, found := c.cache.Get(term); found {
		if podcast, ok := cached.(*Podcast); ok {
			return podcast, nil
		}
		// negative cache entry
		return nil, nil
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "podcast")
	params.Set("entity", "podcast")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode itunes response: %w", err)
	}

	if parsed.ResultCount == 0 || len(parsed.Results) == 0 {
		c.cache.Set(term, false, gocache.DefaultExpiration)
		return nil, nil
	}

	podcast := &parsed.Results[0]
	c.cache.Set(term, podcast, gocache.DefaultExpiration)

	c.logger.WithFields(logrus.Fields{
		"term":  term,
		"match": podcast.CollectionName,
	}).Debug("iTunes lookup hit")

	return podcast, nil
}
