package controllers

import (
	"sort"
	"time"

	"shelftrack/internal/identity"
	"shelftrack/internal/models"
	"shelftrack/internal/sequence"

	"github.com/sirupsen/logrus"
)

const homeListLimit = 10

// BookCard is one book entry on the home view
type BookCard struct {
	TargetID      string  `json:"target_id"`
	LibraryItemID string  `json:"library_item_id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	SeriesName    string  `json:"series_name,omitempty"`
	Year          int     `json:"year,omitempty"`
	CoverURL      string  `json:"cover_url,omitempty"`
	Progress      float64 `json:"progress,omitempty"`
}

// EpisodeCard is one next-episode entry on the home view
type EpisodeCard struct {
	TargetID        string          `json:"target_id"`
	LibraryItemID   string          `json:"library_item_id"`
	ShowTitle       string          `json:"show_title"`
	EpisodeID       string          `json:"episode_id"`
	NativeEpisodeID string          `json:"native_episode_id,omitempty"`
	Title           string          `json:"title"`
	PublishedAt     string          `json:"published_at,omitempty"`
	Presence        models.Presence `json:"presence"`
}

// ShowCard is one podcast suggestion on the home view
type ShowCard struct {
	TargetID         string `json:"target_id"`
	LibraryItemID    string `json:"library_item_id"`
	Title            string `json:"title"`
	ImageURL         string `json:"image_url,omitempty"`
	NextEpisodeTitle string `json:"next_episode_title,omitempty"`
}

// HomeView is the aggregated home response
type HomeView struct {
	ContinueListening  []BookCard    `json:"continue_listening"`
	NextInSeries       []BookCard    `json:"next_in_series"`
	NextEpisodes       []EpisodeCard `json:"next_episodes"`
	RecentlyCompleted  []BookCard    `json:"recently_completed"`
	NewInCollection    []BookCard    `json:"new_in_collection"`
	PodcastSuggestions []ShowCard    `json:"podcast_suggestions"`
}

// RecommendController builds the home view from local state only
type RecommendController struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewRecommendController creates a new recommendation controller
func NewRecommendController(db *models.Database, logger *logrus.Logger) *RecommendController {
	return &RecommendController{db: db, logger: logger}
}

// BuildHome assembles every home list for one owner
func (c *RecommendController) BuildHome(owner int) (*HomeView, error) {
	accounts, err := c.db.GetSyncAccounts(owner)
	if err != nil {
		return nil, err
	}
	targetIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		targetIDs = append(targetIDs, account.ResolveTargetID())
	}

	progressRows, err := c.db.GetProgressByTargets(targetIDs)
	if err != nil {
		return nil, err
	}
	progressByKey := map[string]*models.ProgressLatest{}
	for _, row := range progressRows {
		progressByKey[row.TargetID+"|"+row.LibraryItemID+"|"+row.EpisodeKey] = row
	}

	books, err := c.db.GetCollectedBooks(owner)
	if err != nil {
		return nil, err
	}

	view := &HomeView{
		ContinueListening: continueListening(books, progressByKey),
		NextInSeries:      nextInSeries(books, progressByKey),
		RecentlyCompleted: recentlyCompleted(books, progressByKey),
		NewInCollection:   newInCollection(books),
	}

	shows, err := c.db.GetPodcastShows(owner)
	if err != nil {
		return nil, err
	}
	for _, show := range shows {
		episodes, err := c.db.GetPodcastEpisodes(owner, show.TargetID, show.LibraryItemID)
		if err != nil {
			c.logger.WithError(err).WithField("show", show.Title).Warn("Failed to load episodes")
			continue
		}
		next, hadCompletion := nextEpisode(episodes, show.TargetID, show.LibraryItemID, progressByKey)
		if next == nil {
			continue
		}

		if hadCompletion && len(view.NextEpisodes) < homeListLimit {
			view.NextEpisodes = append(view.NextEpisodes, EpisodeCard{
				TargetID:        show.TargetID,
				LibraryItemID:   show.LibraryItemID,
				ShowTitle:       show.Title,
				EpisodeID:       next.EpisodeID,
				NativeEpisodeID: next.NativeEpisodeID,
				Title:           next.Title,
				PublishedAt:     next.PublishedAt,
				Presence:        next.Presence,
			})
		}
		if len(view.PodcastSuggestions) < homeListLimit {
			view.PodcastSuggestions = append(view.PodcastSuggestions, ShowCard{
				TargetID:         show.TargetID,
				LibraryItemID:    show.LibraryItemID,
				Title:            show.Title,
				ImageURL:         show.ImageURL,
				NextEpisodeTitle: next.Title,
			})
		}
	}

	return view, nil
}

func bookProgress(book *models.CollectedItem, progressByKey map[string]*models.ProgressLatest) *models.ProgressLatest {
	return progressByKey[book.TargetID+"|"+book.LibraryItemID+"|"]
}

func bookCard(book *models.CollectedItem, progress *models.ProgressLatest) BookCard {
	card := BookCard{
		TargetID:      book.TargetID,
		LibraryItemID: book.LibraryItemID,
		Title:         book.Title,
		Author:        book.Author,
		SeriesName:    book.SeriesName,
		Year:          book.Year,
		CoverURL:      book.CoverURL,
	}
	if progress != nil {
		card.Progress = progress.Progress
	}
	return card
}

// continueListening lists in-progress books, latest activity first
func continueListening(books []*models.CollectedItem, progressByKey map[string]*models.ProgressLatest) []BookCard {
	type entry struct {
		card BookCard
		at   time.Time
	}
	var entries []entry
	for _, book := range books {
		progress := bookProgress(book, progressByKey)
		if progress == nil || progress.Progress <= 0 || progress.Completed() {
			continue
		}
		entries = append(entries, entry{card: bookCard(book, progress), at: progress.LastActivity()})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].at.After(entries[b].at) })

	cards := make([]BookCard, 0, homeListLimit)
	for _, e := range entries {
		if len(cards) == homeListLimit {
			break
		}
		cards = append(cards, e.card)
	}
	return cards
}

// recentlyCompleted lists finished books, latest first
func recentlyCompleted(books []*models.CollectedItem, progressByKey map[string]*models.ProgressLatest) []BookCard {
	type entry struct {
		card BookCard
		at   time.Time
	}
	var entries []entry
	for _, book := range books {
		progress := bookProgress(book, progressByKey)
		if progress == nil || !progress.Completed() {
			continue
		}
		entries = append(entries, entry{card: bookCard(book, progress), at: progress.LastActivity()})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].at.After(entries[b].at) })

	cards := make([]BookCard, 0, homeListLimit)
	for _, e := range entries {
		if len(cards) == homeListLimit {
			break
		}
		cards = append(cards, e.card)
	}
	return cards
}

// newInCollection lists the most recently added collected books
func newInCollection(books []*models.CollectedItem) []BookCard {
	sorted := make([]*models.CollectedItem, 0, len(books))
	for _, book := range books {
		if book.Status == models.CollectionStatusCollected {
			sorted = append(sorted, book)
		}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].CreatedAt.After(sorted[b].CreatedAt) })

	cards := make([]BookCard, 0, homeListLimit)
	for _, book := range sorted {
		if len(cards) == homeListLimit {
			break
		}
		cards = append(cards, bookCard(book, nil))
	}
	return cards
}

// nextInSeries suggests, per series group with at least one completed book,
// the first incomplete book after the highest completed one, wrapping to the
// earliest incomplete book when completion happened out of order. Groups
// where nothing is finished yield nothing; the reader has not started the
// series here.
func nextInSeries(books []*models.CollectedItem, progressByKey map[string]*models.ProgressLatest) []BookCard {
	groups := map[string][]*models.CollectedItem{}
	var order []string
	for _, book := range books {
		group := identity.NormalizeSeriesGroup(book.SeriesName)
		if group == "" {
			continue
		}
		if _, seen := groups[group]; !seen {
			order = append(order, group)
		}
		groups[group] = append(groups[group], book)
	}
	sort.Strings(order)

	var cards []BookCard
	for _, group := range order {
		members := groups[group]
		sort.Slice(members, func(a, b int) bool {
			if members[a].Year != members[b].Year {
				return members[a].Year < members[b].Year
			}
			return members[a].Title < members[b].Title
		})

		lastCompleted := -1
		for idx, book := range members {
			progress := bookProgress(book, progressByKey)
			if progress != nil && progress.Completed() {
				lastCompleted = idx
			}
		}
		if lastCompleted == -1 {
			continue
		}

		pick := -1
		for idx := lastCompleted + 1; idx < len(members); idx++ {
			progress := bookProgress(members[idx], progressByKey)
			if progress != nil && progress.Completed() {
				continue
			}
			pick = idx
			break
		}
		// Out-of-order completion: nothing unfinished remains after the
		// highest completed book, so wrap around to the earliest unfinished
		// one.
		if pick == -1 {
			for idx := 0; idx < lastCompleted; idx++ {
				progress := bookProgress(members[idx], progressByKey)
				if progress != nil && progress.Completed() {
					continue
				}
				pick = idx
				break
			}
		}
		if pick >= 0 {
			cards = append(cards, bookCard(members[pick], bookProgress(members[pick], progressByKey)))
		}
		if len(cards) == homeListLimit {
			break
		}
	}
	return cards
}

// nextEpisode picks the next episode of a show in sequencer order, after
// the last completed one. Present episodes are preferred; a feed-only
// episode is the fallback. The second return reports whether anything in
// the show was completed.
func nextEpisode(episodes []*models.PodcastEpisode, targetID, libraryItemID string, progressByKey map[string]*models.ProgressLatest) (*models.PodcastEpisode, bool) {
	if len(episodes) == 0 {
		return nil, false
	}

	sorted := make([]*models.PodcastEpisode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(a, b int) bool {
		keyA := sequence.NewKey(sorted[a].Title, sorted[a].PublishedAt)
		keyB := sequence.NewKey(sorted[b].Title, sorted[b].PublishedAt)
		return keyA.Less(keyB)
	})

	completed := func(episode *models.PodcastEpisode) bool {
		for _, key := range []string{episode.NativeEpisodeID, episode.EpisodeID} {
			if key == "" {
				continue
			}
			if progress := progressByKey[targetID+"|"+libraryItemID+"|"+key]; progress != nil && progress.Completed() {
				return true
			}
		}
		return false
	}

	lastCompleted := -1
	for idx, episode := range sorted {
		if completed(episode) {
			lastCompleted = idx
		}
	}

	pickRange := func(from, to int) *models.PodcastEpisode {
		var fallback *models.PodcastEpisode
		for idx := from; idx < to; idx++ {
			if completed(sorted[idx]) {
				continue
			}
			if sorted[idx].Presence == models.PresencePresent {
				return sorted[idx]
			}
			if fallback == nil {
				fallback = sorted[idx]
			}
		}
		return fallback
	}

	next := pickRange(lastCompleted+1, len(sorted))
	// Out-of-order completion: wrap around to the earliest unfinished
	// episode when everything after the last completed one is done.
	if next == nil {
		next = pickRange(0, lastCompleted)
	}
	return next, lastCompleted >= 0
}
