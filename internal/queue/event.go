// Package queue carries media-orphaned events over RabbitMQ: the publisher
// used by the movie pipelines and the background consumer that records
// each event in logs/orphaned_media.log.
package queue

import (
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MediaOrphanedQueue is the durable queue the events are published to.
const MediaOrphanedQueue = "media.orphaned"

// Reasons an asset was being destroyed when the destroy failed.
const (
	ReasonCompensate = "compensate" // undoing an upload of a failed request
	ReasonRelease    = "release"    // dropping the asset of a replaced or deleted movie
)

// MediaOrphanedEvent is published when an asset could not be destroyed on
// the media host and may now be stored there with no record referencing it.
// It carries enough for an operator to delete the asset by hand.
type MediaOrphanedEvent struct {
	AssetID    string          `json:"asset_id"`
	Kind       model.MediaKind `json:"kind"`
	URL        string          `json:"url,omitempty"`
	MovieID    string          `json:"movie_id,omitempty"`
	Reason     string          `json:"reason"`
	Error      string          `json:"error"`
	OccurredAt time.Time       `json:"occurred_at"`
}
