package controllers

import (
	"context"
	"sort"
	"strings"

	"shelftrack/internal/identity"
	"shelftrack/internal/models"
	"shelftrack/internal/sequence"
	"shelftrack/internal/services/abs"
	"shelftrack/internal/services/audible"
	"shelftrack/internal/services/feed"

	"github.com/sirupsen/logrus"
)

// maxEpisodeIDLen caps stored external episode ids; feed guids can be
// arbitrarily long URLs.
const maxEpisodeIDLen = 64

// episodeSource is one named strategy producing a full episode list for a
// show. Strategies run in order; the first non-empty result wins and tags
// every episode with its provenance.
type episodeSource struct {
	name  models.EpisodeSource
	fetch func(ctx context.Context, show *models.PodcastShow, native []abs.Episode) []*models.PodcastEpisode
}

// Ingestor resolves the episode list of a podcast show from its feed, the
// Audible catalog, or the server's own episode list.
type Ingestor struct {
	feedClient    *feed.Client
	audibleClient *audible.Client
	logger        *logrus.Logger
}

// NewIngestor creates a new episode ingestor
func NewIngestor(feedClient *feed.Client, audibleClient *audible.Client, logger *logrus.Logger) *Ingestor {
	return &Ingestor{
		feedClient:    feedClient,
		audibleClient: audibleClient,
		logger:        logger,
	}
}

// Ingest returns the episode list for a show with presence already matched
// against the native episodes. Episodes carry no owner/target/item; the
// importer fills those before upserting.
func (i *Ingestor) Ingest(ctx context.Context, show *models.PodcastShow, native []abs.Episode) []*models.PodcastEpisode {
	sources := []episodeSource{
		{name: models.EpisodeSourceFeed, fetch: i.fromFeed},
		{name: models.EpisodeSourceAudible, fetch: i.fromAudible},
		{name: models.EpisodeSourceServer, fetch: i.fromServer},
	}

	for _, source := range sources {
		episodes := source.fetch(ctx, show, native)
		if len(episodes) == 0 {
			continue
		}

		for _, episode := range episodes {
			episode.Source = string(source.name)
			if match := MatchNativeEpisode(episode, native); match != nil {
				episode.Presence = models.PresencePresent
				episode.NativeEpisodeID = match.ID
			} else if episode.Presence == "" {
				episode.Presence = models.PresenceMissing
			}
		}

		i.logger.WithFields(logrus.Fields{
			"show":   show.Title,
			"source": source.name,
			"count":  len(episodes),
		}).Debug("Episode source resolved")

		return episodes
	}

	return nil
}

// fromFeed fetches and normalizes the RSS/Atom feed of the show
func (i *Ingestor) fromFeed(ctx context.Context, show *models.PodcastShow, _ []abs.Episode) []*models.PodcastEpisode {
	if strings.TrimSpace(show.FeedURL) == "" {
		return nil
	}

	parsed, err := i.feedClient.Fetch(ctx, show.FeedURL)
	if err != nil {
		i.logger.WithError(err).WithField("show", show.Title).Warn("Feed fetch failed")
		return nil
	}

	episodes := make([]*models.PodcastEpisode, 0, len(parsed))
	for _, entry := range parsed {
		author := entry.Author
		if strings.TrimSpace(author) == "" {
			author = show.Author
		}
		episodes = append(episodes, &models.PodcastEpisode{
			EpisodeID:   truncateID(entry.ID),
			Title:       entry.Title,
			Author:      author,
			PublishedAt: entry.PublishedAt,
			DurationSec: entry.DurationSec,
			ImageURL:    entry.ImageURL,
		})
	}
	return episodes
}

// fromAudible falls back to the Audible catalog episode search, ordered by
// publish time
func (i *Ingestor) fromAudible(ctx context.Context, show *models.PodcastShow, _ []abs.Episode) []*models.PodcastEpisode {
	products, err := i.audibleClient.PodcastEpisodes(ctx, show.Title)
	if err != nil {
		i.logger.WithError(err).WithField("show", show.Title).Warn("Audible episode fallback failed")
		return nil
	}

	sort.SliceStable(products, func(a, b int) bool {
		keyA := sequence.NewKey(products[a].Title, products[a].PublishedAt())
		keyB := sequence.NewKey(products[b].Title, products[b].PublishedAt())
		return keyA.Less(keyB)
	})

	episodes := make([]*models.PodcastEpisode, 0, len(products))
	for _, product := range products {
		episodes = append(episodes, &models.PodcastEpisode{
			EpisodeID:   truncateID(product.ASIN),
			Title:       product.Title,
			Author:      product.AuthorDisplay(),
			PublishedAt: product.PublishedAt(),
			DurationSec: product.RuntimeLengthMin * 60,
		})
	}
	return episodes
}

// fromServer uses the server's own episode list as the last resort; these
// are present by definition
func (i *Ingestor) fromServer(_ context.Context, _ *models.PodcastShow, native []abs.Episode) []*models.PodcastEpisode {
	episodes := make([]*models.PodcastEpisode, 0, len(native))
	for idx := range native {
		entry := &native[idx]
		episodes = append(episodes, &models.PodcastEpisode{
			EpisodeID:       truncateID(entry.ID),
			NativeEpisodeID: entry.ID,
			Presence:        models.PresencePresent,
			Title:           entry.Title,
			PublishedAt:     entry.PublishedAtISO(),
			DurationSec:     entry.AudioFile.Duration,
		})
	}
	return episodes
}

// MatchNativeEpisode finds the native episode matching a normalized one:
// normalized-title equality first, then equality of the first sixteen
// characters of the publish date.
func MatchNativeEpisode(episode *models.PodcastEpisode, native []abs.Episode) *abs.Episode {
	titleKey := identity.NormalizeTextKey(episode.Title)
	if titleKey != "" {
		for idx := range native {
			if identity.NormalizeTextKey(native[idx].Title) == titleKey {
				return &native[idx]
			}
		}
	}

	dateKey := datePrefix(episode.PublishedAt)
	if dateKey != "" {
		for idx := range native {
			if datePrefix(native[idx].PublishedAtISO()) == dateKey {
				return &native[idx]
			}
		}
	}

	return nil
}

// datePrefix truncates a publish date to its first sixteen characters,
// enough to compare to the minute across formats that share a prefix.
func datePrefix(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > 16 {
		return trimmed[:16]
	}
	return trimmed
}

func truncateID(id string) string {
	if len(id) > maxEpisodeIDLen {
		return id[:maxEpisodeIDLen]
	}
	return id
}
