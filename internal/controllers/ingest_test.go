package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelftrack/internal/models"
	"shelftrack/internal/services/abs"
	"shelftrack/internal/services/audible"
	"shelftrack/internal/services/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNativeEpisodeByTitle(t *testing.T) {
	native := []abs.Episode{
		{ID: "n1", Title: "S01E03 - The Setup"},
		{ID: "n2", Title: "S01E04 - The Heist"},
	}

	episode := &models.PodcastEpisode{Title: "s01e04 - THE  heist"}
	match := MatchNativeEpisode(episode, native)
	require.NotNil(t, match)
	assert.Equal(t, "n2", match.ID)
}

func TestMatchNativeEpisodeByDatePrefix(t *testing.T) {
	native := []abs.Episode{
		{ID: "n1", Title: "Completely Different Name", PublishedAt: 1704103200000}, // 2024-01-01T10:00
	}

	episode := &models.PodcastEpisode{
		Title:       "Feed Title Variant",
		PublishedAt: "2024-01-01T10:00:59Z",
	}
	match := MatchNativeEpisode(episode, native)
	require.NotNil(t, match)
	assert.Equal(t, "n1", match.ID)
}

func TestMatchNativeEpisodeNoMatch(t *testing.T) {
	native := []abs.Episode{
		{ID: "n1", Title: "Episode One", PublishedAt: 1704103200000},
	}
	episode := &models.PodcastEpisode{
		Title:       "Episode Two",
		PublishedAt: "2024-02-15T08:00:00Z",
	}
	assert.Nil(t, MatchNativeEpisode(episode, native))
}

func TestIngestFallsBackToServerEpisodes(t *testing.T) {
	// No feed URL and a disabled Audible client leaves only the server
	// source.
	ingestor := NewIngestor(
		feed.NewClient(testLogger()),
		audible.NewClient("", "", "us", testLogger()),
		testLogger(),
	)

	show := &models.PodcastShow{Title: "My Show"}
	native := []abs.Episode{
		{ID: "n1", Title: "Episode 1", PublishedAt: 1704103200000},
		{ID: "n2", Title: "Episode 2", PublishedAt: 1704708000000},
	}

	episodes := ingestor.Ingest(context.Background(), show, native)
	require.Len(t, episodes, 2)
	for _, episode := range episodes {
		assert.Equal(t, string(models.EpisodeSourceServer), episode.Source)
		assert.Equal(t, models.PresencePresent, episode.Presence)
		assert.NotEmpty(t, episode.NativeEpisodeID)
	}
}

func TestIngestFeedUsesShowAuthorFallback(t *testing.T) {
	// A feed without per-item or channel authors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss><channel><title>T</title>
  <item><title>Episode 1</title><guid>g1</guid><pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate></item>
</channel></rss>`))
	}))
	defer server.Close()

	ingestor := NewIngestor(
		feed.NewClient(testLogger()),
		audible.NewClient("", "", "us", testLogger()),
		testLogger(),
	)
	show := &models.PodcastShow{
		Title:   "My Show",
		Author:  "Show Host",
		FeedURL: server.URL,
	}

	episodes := ingestor.Ingest(context.Background(), show, nil)
	require.Len(t, episodes, 1)
	assert.Equal(t, string(models.EpisodeSourceFeed), episodes[0].Source)
	assert.Equal(t, "Show Host", episodes[0].Author)
}

func TestIngestTruncatesLongIDs(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, truncateID(string(long)), maxEpisodeIDLen)
	assert.Equal(t, "short", truncateID("short"))
}
