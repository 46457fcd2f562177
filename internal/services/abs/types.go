package abs

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexInt accepts a JSON number or a numeric string. Audiobookshelf emits
// publishedYear and itunesId either way depending on metadata provider.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		// "2021.0" style strings appear on some servers
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			*f = FlexInt(int64(parsed))
			return nil
		}
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(int64(n))
	return nil
}

// FlexString accepts a JSON string or number and stores it as a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// User is the authenticated user from /api/me
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Library is one library from /api/libraries
type Library struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
}

type librariesResponse struct {
	Libraries []Library `json:"libraries"`
}

// Metadata is the shared metadata block of a library item
type Metadata struct {
	Title         string     `json:"title"`
	AuthorName    string     `json:"authorName"`
	Author        string     `json:"author"`
	SeriesName    string     `json:"seriesName"`
	PublishedYear FlexInt    `json:"publishedYear"`
	ASIN          FlexString `json:"asin"`
	ISBN          FlexString `json:"isbn"`
	FeedURL       string     `json:"feedUrl"`
	ITunesID      FlexString `json:"itunesId"`
	ITunesPageURL string     `json:"itunesPageUrl"`
	ImageURL      string     `json:"imageUrl"`
	ReleaseDate   string     `json:"releaseDate"`
	Language      string     `json:"language"`
}

// AuthorDisplay prefers authorName over author; minified book listings fill
// the former, podcast metadata the latter.
func (m *Metadata) AuthorDisplay() string {
	if strings.TrimSpace(m.AuthorName) != "" {
		return m.AuthorName
	}
	return m.Author
}

// Media is the media block of a library item
type Media struct {
	Metadata  Metadata  `json:"metadata"`
	Duration  float64   `json:"duration"`
	CoverPath string    `json:"coverPath"`
	Episodes  []Episode `json:"episodes"`
}

// LibraryItem is one (possibly minified) item from a library listing
type LibraryItem struct {
	ID        string `json:"id"`
	LibraryID string `json:"libraryId"`
	MediaType string `json:"mediaType"`
	Media     Media  `json:"media"`
}

// ItemsPage is one page of /api/libraries/{id}/items
type ItemsPage struct {
	Results []LibraryItem `json:"results"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
}

// Episode is a native podcast episode from an item detail
type Episode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Season      FlexString `json:"season"`
	Episode     FlexString `json:"episode"`
	PublishedAt FlexInt    `json:"publishedAt"` // epoch milliseconds
	PubDate     string     `json:"pubDate"`
	AudioFile   struct {
		Duration float64 `json:"duration"`
	} `json:"audioFile"`
}

// PublishedAtISO renders the millisecond publish timestamp as an ISO-8601
// string, falling back to the raw pubDate header.
func (e *Episode) PublishedAtISO() string {
	if e.PublishedAt > 0 {
		return time.UnixMilli(int64(e.PublishedAt)).UTC().Format("2006-01-02T15:04:05")
	}
	return e.PubDate
}

// MediaProgress is one row from /api/me/progress/{id}
type MediaProgress struct {
	ID            string  `json:"id"`
	LibraryItemID string  `json:"libraryItemId"`
	EpisodeID     string  `json:"episodeId"`
	Duration      float64 `json:"duration"`
	Progress      float64 `json:"progress"`
	CurrentTime   float64 `json:"currentTime"`
	IsFinished    bool    `json:"isFinished"`
	StartedAt     int64   `json:"startedAt"`  // epoch milliseconds
	FinishedAt    int64   `json:"finishedAt"` // epoch milliseconds
	LastUpdate    int64   `json:"lastUpdate"` // epoch milliseconds
}
