package models

// MediaType distinguishes the two library item kinds
type MediaType string

const (
	MediaTypeBook    MediaType = "book"
	MediaTypePodcast MediaType = "podcast"
)

// CollectionStatus tracks whether a collected item is still present on the
// remote library
type CollectionStatus string

const (
	CollectionStatusCollected CollectionStatus = "collected"
	CollectionStatusMissing   CollectionStatus = "missing"
)

// Presence records whether a feed-known episode exists natively on the server
type Presence string

const (
	PresencePresent Presence = "present"
	PresenceMissing Presence = "missing"
)

// TrackedStatus is the lifecycle of a manually tracked book
type TrackedStatus string

const (
	TrackedStatusPlanned    TrackedStatus = "planned"
	TrackedStatusInProgress TrackedStatus = "in_progress"
	TrackedStatusHeard      TrackedStatus = "heard"
)

// OutboxStatus is the delivery state of a locally originated progress change
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// EpisodeSource names the strategy that produced an episode list
type EpisodeSource string

const (
	EpisodeSourceFeed    EpisodeSource = "feed"
	EpisodeSourceAudible EpisodeSource = "audible"
	EpisodeSourceServer  EpisodeSource = "abs"
)
