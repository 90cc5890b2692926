package testinfra

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/iliyamo/movie-catalog/internal/media"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
)

// Upload is one recorded Gateway.Upload call.
type Upload struct {
	LocalPath string
	Opts      media.UploadOptions
	Asset     media.Asset
	Err       error
}

// Gateway is an in-memory media.Gateway.  It keeps the set of live assets
// so tests can check that compensation returned the host to its baseline.
type Gateway struct {
	mu      sync.Mutex
	n       int
	live    map[string]model.MediaKind
	uploads []Upload
	destroy []string

	// UploadErr fails uploads of the given kind.
	UploadErr map[model.MediaKind]error
	// DestroyErr fails destroys of the given asset id.
	DestroyErr map[string]error
}

func NewGateway() *Gateway {
	return &Gateway{
		live:       map[string]model.MediaKind{},
		UploadErr:  map[model.MediaKind]error{},
		DestroyErr: map[string]error{},
	}
}

// Seed registers an existing asset as live.
func (g *Gateway) Seed(assetID string, kind model.MediaKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.live[assetID] = kind
}

func (g *Gateway) Upload(_ context.Context, localPath string, opts media.UploadOptions) (media.Asset, error) {
	_ = os.Remove(localPath)

	g.mu.Lock()
	defer g.mu.Unlock()
	rec := Upload{LocalPath: localPath, Opts: opts}
	if err := g.UploadErr[opts.Kind]; err != nil {
		rec.Err = &media.UpstreamError{Op: "upload", Kind: opts.Kind, Err: err}
		g.uploads = append(g.uploads, rec)
		return media.Asset{}, rec.Err
	}
	g.n++
	id := path.Join(opts.Folder, string(opts.Kind)+"-"+strconv.Itoa(g.n))
	rec.Asset = media.Asset{URL: "https://media.test/" + id, AssetID: id, Kind: opts.Kind}
	g.live[id] = opts.Kind
	g.uploads = append(g.uploads, rec)
	return rec.Asset, nil
}

func (g *Gateway) Destroy(_ context.Context, assetID string, kind model.MediaKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroy = append(g.destroy, assetID)
	if err := g.DestroyErr[assetID]; err != nil {
		return &media.UpstreamError{Op: "destroy", Kind: kind, Err: err}
	}
	delete(g.live, assetID)
	return nil
}

// Uploads returns the recorded uploads in call order.
func (g *Gateway) Uploads() []Upload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Upload(nil), g.uploads...)
}

// Destroyed returns the asset ids passed to Destroy in call order.
func (g *Gateway) Destroyed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.destroy...)
}

// Live returns the number of assets currently stored.
func (g *Gateway) Live() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

// IsLive reports whether assetID is currently stored.
func (g *Gateway) IsLive(assetID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.live[assetID]
	return ok
}

// ErrBoom is a generic failure for tests.
var ErrBoom = errors.New("boom")

// Orphans records published MediaOrphanedEvents.
type Orphans struct {
	mu     sync.Mutex
	events []queue.MediaOrphanedEvent
	Err    error
}

func (o *Orphans) PublishMediaOrphaned(_ context.Context, ev queue.MediaOrphanedEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
	return o.Err
}

// Events returns the published events in order.
func (o *Orphans) Events() []queue.MediaOrphanedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]queue.MediaOrphanedEvent(nil), o.events...)
}

// TempFile writes a small file named name under dir and returns its path.
func TempFile(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	return p, os.WriteFile(p, []byte("data"), 0o644)
}
