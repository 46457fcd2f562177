// Package abs talks to an Audiobookshelf server over its JSON API.
package abs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// PageLimit is the library listing page size; a short or empty page ends
// pagination.
const PageLimit = 200

// Client handles communication with one Audiobookshelf server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a client for one server/token pair
func NewClient(baseURL, token string, logger *logrus.Logger) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("server base URL is required")
	}

	return &Client{
		baseURL:    trimmed,
		token:      token,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WebURL builds the browser URL of a library item
func (c *Client) WebURL(libraryItemID string) string {
	return c.baseURL + "/item/" + libraryItemID
}

// doRequest performs an authenticated JSON request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL := c.baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    fullURL,
	}).Debug("Making server API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Me fetches the authenticated user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Libraries fetches all libraries on the server
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var resp librariesResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/libraries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Libraries, nil
}

// LibraryItems fetches one minified page of a library listing. Pages are
// zero-based.
func (c *Client) LibraryItems(ctx context.Context, libraryID string, page int) (*ItemsPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(PageLimit))
	params.Set("page", strconv.Itoa(page))
	params.Set("minified", "1")

	var itemsPage ItemsPage
	path := "/api/libraries/" + libraryID + "/items?" + params.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &itemsPage); err != nil {
		return nil, err
	}
	return &itemsPage, nil
}

// Item fetches a full item detail, including podcast episodes
func (c *Client) Item(ctx context.Context, libraryItemID string) (*LibraryItem, error) {
	var item LibraryItem
	if err := c.doRequest(ctx, http.MethodGet, "/api/items/"+libraryItemID, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Progress fetches per-item media progress. Optional: any failure,
// including a 404 for never-played items, degrades to nil without error.
func (c *Client) Progress(ctx context.Context, libraryItemID string) *MediaProgress {
	var progress MediaProgress
	if err := c.doRequest(ctx, http.MethodGet, "/api/me/progress/"+libraryItemID, nil, &progress); err != nil {
		c.logger.WithError(err).WithField("item", libraryItemID).
			Debug("No progress available for item")
		return nil
	}
	return &progress
}

// Play kicks off a playback session. Best effort: callers log the error and
// move on.
func (c *Client) Play(ctx context.Context, libraryItemID string, episodeID *string) error {
	path := "/api/items/" + libraryItemID + "/play"
	if episodeID != nil && *episodeID != "" {
		path += "/" + *episodeID
	}
	return c.doRequest(ctx, http.MethodPost, path, map[string]interface{}{}, nil)
}

// Cover fetches the raw cover image of an item for proxying
func (c *Client) Cover(ctx context.Context, libraryItemID string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/items/"+libraryItemID+"/cover", nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	coverClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := coverClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("cover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("cover request failed with status %d", resp.StatusCode)
	}

	const maxCoverSize = 5 * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cover: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
