// Package audible queries the Audible catalog API. The API needs a bearer
// token; without one every call degrades to empty results so imports and
// enrichment keep working.
package audible

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// marketplaceHosts maps a marketplace code onto the catalog host used when
// no explicit base URL overrides it.
var marketplaceHosts = map[string]string{
	"us": "https://api.audible.com",
	"uk": "https://api.audible.co.uk",
	"de": "https://api.audible.de",
	"fr": "https://api.audible.fr",
	"au": "https://api.audible.com.au",
}

// Author is a product author entry
type Author struct {
	Name string `json:"name"`
}

// Series is a product series entry
type Series struct {
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

// Product is one catalog product
type Product struct {
	ASIN                string   `json:"asin"`
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle"`
	Authors             []Author `json:"authors"`
	Series              []Series `json:"series"`
	ReleaseDate         string   `json:"release_date"`
	IssueDate           string   `json:"issue_date"`
	Language            string   `json:"language"`
	ContentType         string   `json:"content_type"`
	ContentDeliveryType string   `json:"content_delivery_type"`
	RuntimeLengthMin    float64  `json:"runtime_length_min"`
	ISBN                string   `json:"isbn"`
}

// AuthorDisplay joins the author names
func (p *Product) AuthorDisplay() string {
	names := make([]string, 0, len(p.Authors))
	for _, author := range p.Authors {
		if strings.TrimSpace(author.Name) != "" {
			names = append(names, author.Name)
		}
	}
	return strings.Join(names, ", ")
}

// PublishedAt prefers the release date over the issue date
func (p *Product) PublishedAt() string {
	if p.ReleaseDate != "" {
		return p.ReleaseDate
	}
	return p.IssueDate
}

// IsEpisode reports whether the product is a podcast episode rather than a
// show or a book
func (p *Product) IsEpisode() bool {
	return strings.EqualFold(p.ContentType, "Episode") ||
		strings.EqualFold(p.ContentDeliveryType, "PodcastEpisode")
}

type productsResponse struct {
	Products []Product `json:"products"`
}

// Client talks to the Audible catalog API
type Client struct {
	baseURL        string
	token          string
	searchClient   *http.Client
	episodesClient *http.Client
	logger         *logrus.Logger
}

// NewClient creates a new Audible client. The marketplace picks the catalog
// host unless baseURL overrides it; an empty token yields a disabled client.
func NewClient(baseURL, token, marketplace string, logger *logrus.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if host, ok := marketplaceHosts[strings.ToLower(marketplace)]; ok && (base == "" || base == marketplaceHosts["us"]) {
		base = host
	}
	if base == "" {
		base = marketplaceHosts["us"]
	}

	return &Client{
		baseURL:        base,
		token:          token,
		searchClient:   &http.Client{Timeout: 12 * time.Second},
		episodesClient: &http.Client{Timeout: 18 * time.Second},
		logger:         logger,
	}
}

// Enabled reports whether a token is configured
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.token) != ""
}

// Search queries the catalog by keywords. Disabled clients return empty
// results without error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	if !c.Enabled() || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("keywords", query)
	params.Set("num_results", strconv.Itoa(limit))
	params.Set("response_groups", "product_desc,product_attrs,series,contributors")

	products, err := c.fetchProducts(ctx, c.searchClient, params)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(products),
	}).Debug("Audible search completed")

	return products, nil
}

// PodcastEpisodes searches for episodes of a show by its title. Hits that
// are not episodes, or whose title does not contain the show title, are
// dropped; the rest come back in catalog order for the caller to sort.
func (c *Client) PodcastEpisodes(ctx context.Context, showTitle string) ([]Product, error) {
	if !c.Enabled() || strings.TrimSpace(showTitle) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("keywords", showTitle)
	params.Set("num_results", "50")
	params.Set("response_groups", "product_desc,product_attrs,contributors")

	products, err := c.fetchProducts(ctx, c.episodesClient, params)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(showTitle))
	episodes := make([]Product, 0, len(products))
	for _, product := range products {
		if !product.IsEpisode() {
			continue
		}
		if !strings.Contains(strings.ToLower(product.Title), needle) {
			continue
		}
		episodes = append(episodes, product)
	}

	c.logger.WithFields(logrus.Fields{
		"show":  showTitle,
		"count": len(episodes),
	}).Debug("Audible episode fallback completed")

	return episodes, nil
}

func (c *Client) fetchProducts(ctx context.Context, httpClient *http.Client, params url.Values) ([]Product, error) {
	fullURL := c.baseURL + "/1.0/catalog/products?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audible request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audible request failed with status %d", resp.StatusCode)
	}

	var parsed productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode audible response: %w", err)
	}
	return parsed.Products, nil
}
