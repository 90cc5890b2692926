package media

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// BreakerConfig tunes the circuit breaker around the media host.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that open the breaker
	OpenTimeout      time.Duration // time spent open before a trial call
}

// Breaker fails fast with ErrMediaUnavailable once the media host has failed
// FailureThreshold times in a row.  Uploads and destroys share one breaker
// since both hit the same host.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[Asset]
}

// NewBreaker wraps next.
func NewBreaker(next Gateway, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Name == "" {
		cfg.Name = "media"
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		// A caller that went away says nothing about the media host.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("media breaker state change")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[Asset](settings)}
}

// Upload forwards to the wrapped gateway unless the breaker is open.  The
// local file is removed in both cases.
func (b *Breaker) Upload(ctx context.Context, localPath string, opts UploadOptions) (Asset, error) {
	defer removeLocal(ctx, localPath)
	asset, err := b.cb.Execute(func() (Asset, error) {
		return b.next.Upload(ctx, localPath, opts)
	})
	if err != nil {
		return Asset{}, b.wrap("upload", opts.Kind, err)
	}
	return asset, nil
}

// Destroy forwards to the wrapped gateway unless the breaker is open.
func (b *Breaker) Destroy(ctx context.Context, assetID string, kind model.MediaKind) error {
	_, err := b.cb.Execute(func() (Asset, error) {
		return Asset{}, b.next.Destroy(ctx, assetID, kind)
	})
	if err != nil {
		return b.wrap("destroy", kind, err)
	}
	return nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) wrap(op string, kind model.MediaKind, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &UpstreamError{Op: op, Kind: kind, Err: ErrMediaUnavailable}
	}
	return err
}
