package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const itunesNS = "http://www.itunes.com/dtds/podcast-1.0.dtd"

// Episode is one parsed feed entry
type Episode struct {
	ID          string // guid, or synthesized from title+published
	Title       string
	Author      string
	PublishedAt string
	DurationSec float64
	ImageURL    string
}

// rssDocument represents an RSS 2.0 podcast feed
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title  string    `xml:"title"`
		Author string    `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
		Items  []rssItem `xml:"item"`
	} `xml:"channel"`
}

// rssItem is a single feed item
type rssItem struct {
	Title    string `xml:"title"`
	GUID     string `xml:"guid"`
	PubDate  string `xml:"pubDate"`
	Author   string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	Duration string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Image    struct {
		Href string `xml:"href,attr"`
	} `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Enclosure struct {
		URL  string `xml:"url,attr"`
		Type string `xml:"type,attr"`
	} `xml:"enclosure"`
}

// atomDocument represents an Atom feed; some podcast hosts serve these
type atomDocument struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		ID        string `xml:"id"`
		Title     string `xml:"title"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
		Author    struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// Client fetches and parses podcast feeds
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new feed client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 25 * time.Second},
		logger:     logger,
	}
}

// Fetch downloads a feed and returns its episodes. RSS is tried first,
// then Atom.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]Episode, error) {
	if strings.TrimSpace(feedURL) == "" {
		return nil, fmt.Errorf("feed URL is empty")
	}

	c.logger.WithField("url", feedURL).Debug("Fetching podcast feed")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "shelftrack/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request failed with status %d", resp.StatusCode)
	}

	const maxFeedSize = 20 * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	episodes, err := Parse(data)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"url":   feedURL,
		"count": len(episodes),
	}).Debug("Feed parsed")

	return episodes, nil
}

// Parse decodes feed XML into episodes
func Parse(data []byte) ([]Episode, error) {
	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil && rss.XMLName.Local == "rss" {
		episodes := make([]Episode, 0, len(rss.Channel.Items))
		for idx, item := range rss.Channel.Items {
			episode := Episode{
				Title:       entryTitle(item.Title, idx),
				Author:      firstNonEmpty(item.Author, rss.Channel.Author),
				PublishedAt: strings.TrimSpace(item.PubDate),
				DurationSec: parseDuration(item.Duration),
				ImageURL:    firstNonEmpty(item.Image.Href, imageFromEnclosure(item)),
			}
			episode.ID = episodeID(item.GUID, episode.Title, episode.PublishedAt)
			episodes = append(episodes, episode)
		}
		return episodes, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(data, &atom); err == nil && atom.XMLName.Local == "feed" {
		episodes := make([]Episode, 0, len(atom.Entries))
		for idx, entry := range atom.Entries {
			published := firstNonEmpty(entry.Published, entry.Updated)
			episode := Episode{
				Title:       entryTitle(entry.Title, idx),
				Author:      entry.Author.Name,
				PublishedAt: strings.TrimSpace(published),
			}
			episode.ID = episodeID(entry.ID, episode.Title, episode.PublishedAt)
			episodes = append(episodes, episode)
		}
		return episodes, nil
	}

	return nil, fmt.Errorf("unrecognized feed format")
}

// entryTitle substitutes a positional title for untitled entries so they
// keep an identity downstream
func entryTitle(raw string, idx int) string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return fmt.Sprintf("Episode %d", idx+1)
	}
	return title
}

// episodeID prefers the feed guid; without one the id is synthesized from
// title and publish date so repeat imports stay stable.
func episodeID(guid, title, published string) string {
	if id := strings.TrimSpace(guid); id != "" {
		return id
	}
	sum := sha1.Sum([]byte(title + "|" + published))
	return "itunes:" + hex.EncodeToString(sum[:])
}

// parseDuration handles HH:MM:SS, MM:SS and plain-seconds values
func parseDuration(value string) float64 {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0
	}
	if !strings.Contains(raw, ":") {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0
		}
		return seconds
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0
	}
	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// imageFromEnclosure uses an image-typed enclosure when no itunes image
// exists
func imageFromEnclosure(item rssItem) string {
	if strings.HasPrefix(item.Enclosure.Type, "image/") {
		return item.Enclosure.URL
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
