package model

import "time"

// MediaKind distinguishes the two asset types a movie owns on the
// media host.  Values match the host's resource type names.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Movie represents a movie record.  Each movie owns exactly one
// poster asset and one video asset on the media host for as long as
// the record exists.  The asset ids are stored next to the URLs so
// that replacing or deleting a movie can release the old assets
// without parsing URLs.
//
// Fields:
//
//	ID            – backend-assigned identifier, serialized as "_id".
//	Title         – unique title.
//	Description   – synopsis.
//	Genre         – one to five genre names.
//	Cast          – one to ten cast member names.
//	Director      – director name.
//	ReleaseYear   – year between 1900 and five years from now.
//	AverageRating – rating between 0 and 10.
//	PosterURL     – secure URL of the poster image.
//	PosterAssetID – media host id of the poster image.
//	VideoURL      – secure URL of the video.
//	VideoAssetID  – media host id of the video.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Movie struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Genre         []string  `json:"genre"`
	Cast          []string  `json:"cast"`
	Director      string    `json:"director"`
	ReleaseYear   int       `json:"release_year"`
	AverageRating float64   `json:"average_rating"`
	PosterURL     string    `json:"poster_url"`
	PosterAssetID string    `json:"poster_asset_id"`
	VideoURL      string    `json:"video_url"`
	VideoAssetID  string    `json:"video_asset_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy whose slices do not alias the receiver's.
func (m Movie) Clone() Movie {
	m.Genre = append([]string(nil), m.Genre...)
	m.Cast = append([]string(nil), m.Cast...)
	return m
}
