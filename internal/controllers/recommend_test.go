package controllers

import (
	"testing"

	"shelftrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, db *models.Database, owner int, target string) {
	t.Helper()
	require.NoError(t, db.SaveSyncAccount(&models.SyncAccount{
		OwnerUserID: owner,
		AccountName: "acct-" + target,
		BaseURL:     "https://abs.example.com",
		TargetID:    target,
		Enabled:     true,
	}))
}

func seedBook(t *testing.T, db *models.Database, target, itemID, title, series string, year int) {
	t.Helper()
	require.NoError(t, db.UpsertCollectedItem(&models.CollectedItem{
		OwnerUserID:   1,
		TargetID:      target,
		LibraryItemID: itemID,
		MediaType:     models.MediaTypeBook,
		Title:         title,
		Author:        "Author",
		SeriesName:    series,
		Year:          year,
		Status:        models.CollectionStatusCollected,
	}))
}

func seedBookProgress(t *testing.T, db *models.Database, target, itemID string, progress float64, finished bool) {
	t.Helper()
	require.NoError(t, db.UpsertProgressLatest(&models.ProgressLatest{
		TargetID:      target,
		LibraryItemID: itemID,
		EpisodeKey:    "",
		Progress:      progress,
		Finished:      finished,
	}))
}

func TestNextInSeriesAfterHighestCompleted(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")

	seedBook(t, db, "u1-a1", "li_1", "Saga One", "Saga #1", 2018)
	seedBook(t, db, "u1-a1", "li_2", "Saga Two", "Saga #2", 2019)
	seedBook(t, db, "u1-a1", "li_3", "Saga Three", "Saga #3", 2020)
	seedBookProgress(t, db, "u1-a1", "li_1", 1, true)
	seedBookProgress(t, db, "u1-a1", "li_2", 0.99, false) // >= 0.98 counts as done

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	require.Len(t, view.NextInSeries, 1)
	assert.Equal(t, "li_3", view.NextInSeries[0].LibraryItemID)
	assert.Equal(t, "Saga Three", view.NextInSeries[0].Title)
}

func TestNextInSeriesSkipsUnstartedGroups(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")

	seedBook(t, db, "u1-a1", "li_1", "Fresh One", "Fresh Series, Book 1", 2021)
	seedBook(t, db, "u1-a1", "li_2", "Fresh Two", "Fresh Series, Book 2", 2022)

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)
	assert.Empty(t, view.NextInSeries)
}

func TestNextInSeriesWrapsAroundOnOutOfOrderCompletion(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")

	seedBook(t, db, "u1-a1", "li_1", "Saga One", "Saga #1", 2018)
	seedBook(t, db, "u1-a1", "li_2", "Saga Two", "Saga #2", 2019)
	seedBook(t, db, "u1-a1", "li_3", "Saga Three", "Saga #3", 2020)
	// Only the last book is finished; the suggestion wraps back to the
	// first.
	seedBookProgress(t, db, "u1-a1", "li_3", 1, true)

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	require.Len(t, view.NextInSeries, 1)
	assert.Equal(t, "li_1", view.NextInSeries[0].LibraryItemID)
}

func TestContinueListeningExcludesCompleted(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")

	seedBook(t, db, "u1-a1", "li_half", "Half Done", "", 2020)
	seedBook(t, db, "u1-a1", "li_done", "All Done", "", 2020)
	seedBook(t, db, "u1-a1", "li_new", "Untouched", "", 2020)
	seedBookProgress(t, db, "u1-a1", "li_half", 0.5, false)
	seedBookProgress(t, db, "u1-a1", "li_done", 1, true)

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	require.Len(t, view.ContinueListening, 1)
	assert.Equal(t, "li_half", view.ContinueListening[0].LibraryItemID)
	require.Len(t, view.RecentlyCompleted, 1)
	assert.Equal(t, "li_done", view.RecentlyCompleted[0].LibraryItemID)
	assert.Len(t, view.NewInCollection, 3)
}

func seedEpisode(t *testing.T, db *models.Database, itemID, episodeID, title, published string, presence models.Presence, nativeID string) {
	t.Helper()
	require.NoError(t, db.UpsertPodcastEpisode(&models.PodcastEpisode{
		OwnerUserID:     1,
		TargetID:        "u1-a1",
		LibraryItemID:   itemID,
		EpisodeID:       episodeID,
		NativeEpisodeID: nativeID,
		Presence:        presence,
		Title:           title,
		PublishedAt:     published,
	}))
}

func TestNextEpisodePrefersPresent(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")
	require.NoError(t, db.UpsertPodcastShow(&models.PodcastShow{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		Title:         "My Show",
	}))

	seedEpisode(t, db, "show_1", "e3", "S01E03", "2024-01-01T00:00:00Z", models.PresencePresent, "native_3")
	seedEpisode(t, db, "show_1", "e4", "S01E04", "2024-01-08T00:00:00Z", models.PresenceMissing, "")
	seedEpisode(t, db, "show_1", "e5", "S01E05", "2024-01-15T00:00:00Z", models.PresencePresent, "native_5")

	// Episode 3 finished via its native id.
	native3 := "native_3"
	require.NoError(t, db.UpsertProgressLatest(&models.ProgressLatest{
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		EpisodeKey:    models.EpisodeKey(&native3),
		Progress:      1,
		Finished:      true,
	}))

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	// Episode 4 is next in order but missing from the server; the present
	// episode 5 wins.
	require.Len(t, view.NextEpisodes, 1)
	assert.Equal(t, "e5", view.NextEpisodes[0].EpisodeID)
	assert.Equal(t, models.PresencePresent, view.NextEpisodes[0].Presence)

	require.Len(t, view.PodcastSuggestions, 1)
	assert.Equal(t, "S01E05", view.PodcastSuggestions[0].NextEpisodeTitle)
}

func TestNextEpisodeFallsBackToMissing(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")
	require.NoError(t, db.UpsertPodcastShow(&models.PodcastShow{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		Title:         "My Show",
	}))

	seedEpisode(t, db, "show_1", "e1", "Episode 1", "2024-01-01T00:00:00Z", models.PresencePresent, "native_1")
	seedEpisode(t, db, "show_1", "e2", "Episode 2", "2024-01-08T00:00:00Z", models.PresenceMissing, "")

	native1 := "native_1"
	require.NoError(t, db.UpsertProgressLatest(&models.ProgressLatest{
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		EpisodeKey:    models.EpisodeKey(&native1),
		Progress:      1,
		Finished:      true,
	}))

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	require.Len(t, view.NextEpisodes, 1)
	assert.Equal(t, "e2", view.NextEpisodes[0].EpisodeID)
	assert.Equal(t, models.PresenceMissing, view.NextEpisodes[0].Presence)
}

func TestNextEpisodeWrapsAroundWhenLatestFinished(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")
	require.NoError(t, db.UpsertPodcastShow(&models.PodcastShow{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		Title:         "My Show",
	}))

	seedEpisode(t, db, "show_1", "e1", "Episode 1", "2024-01-01T00:00:00Z", models.PresencePresent, "native_1")
	seedEpisode(t, db, "show_1", "e2", "Episode 2", "2024-01-08T00:00:00Z", models.PresencePresent, "native_2")

	// Only the newest episode is finished; the pick wraps back to the
	// first.
	native2 := "native_2"
	require.NoError(t, db.UpsertProgressLatest(&models.ProgressLatest{
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		EpisodeKey:    models.EpisodeKey(&native2),
		Progress:      1,
		Finished:      true,
	}))

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	require.Len(t, view.NextEpisodes, 1)
	assert.Equal(t, "e1", view.NextEpisodes[0].EpisodeID)
	require.Len(t, view.PodcastSuggestions, 1)
	assert.Equal(t, "Episode 1", view.PodcastSuggestions[0].NextEpisodeTitle)
}

func TestShowWithoutCompletionOnlySuggests(t *testing.T) {
	db := newTestDatabase(t)
	seedAccount(t, db, 1, "u1-a1")
	require.NoError(t, db.UpsertPodcastShow(&models.PodcastShow{
		OwnerUserID:   1,
		TargetID:      "u1-a1",
		LibraryItemID: "show_1",
		Title:         "Fresh Show",
	}))
	seedEpisode(t, db, "show_1", "e1", "Episode 1", "2024-01-01T00:00:00Z", models.PresencePresent, "native_1")

	ctrl := NewRecommendController(db, testLogger())
	view, err := ctrl.BuildHome(1)
	require.NoError(t, err)

	assert.Empty(t, view.NextEpisodes)
	require.Len(t, view.PodcastSuggestions, 1)
	assert.Equal(t, "Episode 1", view.PodcastSuggestions[0].NextEpisodeTitle)
}
