// Package media talks to the external media host that stores movie posters
// and videos.  Two hosts are supported, Cloudinary and Amazon S3, behind
// the Gateway interface; Breaker wraps either one with a circuit breaker.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// Asset is a file stored on the media host.
type Asset struct {
	URL     string          // secure (https) URL of the stored file
	AssetID string          // opaque host id used to destroy the file
	Kind    model.MediaKind // image or video
}

// UploadOptions controls where and how a file is stored.
type UploadOptions struct {
	Folder string
	Kind   model.MediaKind
}

// Gateway uploads local files to the media host and destroys them.
//
// Upload removes the local file before returning, whatever the outcome.
// Destroy is idempotent: destroying an asset that no longer exists succeeds.
type Gateway interface {
	Upload(ctx context.Context, localPath string, opts UploadOptions) (Asset, error)
	Destroy(ctx context.Context, assetID string, kind model.MediaKind) error
}

// ErrMediaUnavailable is returned while the breaker is open.
var ErrMediaUnavailable = errors.New("media host unavailable")

// UpstreamError reports a failed call against the media host.
type UpstreamError struct {
	Op   string // "upload" or "destroy"
	Kind model.MediaKind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("media %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// removeLocal deletes a temporary upload file.  A missing file is not an
// error since the handler and the gateway both try.
func removeLocal(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("remove temp upload")
	}
}
