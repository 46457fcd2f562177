// Package sequence assigns a sortable ordering to podcast and series
// episodes whose numbering must be recovered from heterogeneous title and
// date metadata.
package sequence

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// unnumbered is the episode-number sentinel for title-only episodes; it
// sorts after every real episode number.
const unnumbered = math.MaxInt32

// timeUnknown is the timestamp sentinel for unparsable dates.
const timeUnknown = math.MaxInt64

var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bS\d{1,2}E(\d{1,4})\b`),
	regexp.MustCompile(`(?i)\b(?:episode|ep|folge)\s*#?\s*(\d{1,4})\b`),
	regexp.MustCompile(`^\s*(\d{1,4})\s*[-.:]`),
}

// EpisodeNumber extracts an episode number from a title. Patterns are
// tried in priority order: SxxEyy, "episode/ep/folge N", then a leading
// "N -"/"N:"/"N." prefix. Returns 0, false when no positive number is
// found.
func EpisodeNumber(title string) (int, bool) {
	raw := strings.TrimSpace(title)
	if raw == "" {
		return 0, false
	}
	for _, pattern := range episodePatterns {
		match := pattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil || number <= 0 {
			continue
		}
		return number, true
	}
	return 0, false
}

// ParsePublishedTime parses ISO-8601 (with or without a trailing Z) and
// RFC-2822 style dates to a UTC epoch in seconds. Unparsable values sort
// to the end via the timeUnknown sentinel.
func ParsePublishedTime(value string) int64 {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return timeUnknown
	}

	isoLayouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Unix()
		}
	}

	rfcLayouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
	}
	for _, layout := range rfcLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Unix()
		}
	}

	return timeUnknown
}

// Key is a total-order sort key for episodes. Numbered episodes order by
// number first; title-only episodes sort strictly after all numbered ones,
// by publish time then normalized title.
type Key struct {
	Unnumbered  int
	Number      int
	PublishedTS int64
	Title       string
}

// NewKey builds the sort key for an episode title and published-date
// string.
func NewKey(title, publishedAt string) Key {
	key := Key{
		Number:      unnumbered,
		Unnumbered:  1,
		PublishedTS: ParsePublishedTime(publishedAt),
		Title:       strings.ToLower(strings.TrimSpace(title)),
	}
	if number, ok := EpisodeNumber(title); ok {
		key.Unnumbered = 0
		key.Number = number
	}
	return key
}

// Less reports whether k orders strictly before other.
func (k Key) Less(other Key) bool {
	if k.Unnumbered != other.Unnumbered {
		return k.Unnumbered < other.Unnumbered
	}
	if k.Number != other.Number {
		return k.Number < other.Number
	}
	if k.PublishedTS != other.PublishedTS {
		return k.PublishedTS < other.PublishedTS
	}
	return k.Title < other.Title
}
