package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/media"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/saga"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// OrphanReporter is told about assets that could not be destroyed.
type OrphanReporter interface {
	PublishMediaOrphaned(ctx context.Context, ev queue.MediaOrphanedEvent) error
}

// MovieInput is a parsed movie create or update request.
type MovieInput struct {
	Values  url.Values // non-file form fields
	Posters []File
	Videos  []File
}

// PipelineConfig holds the media folders and the cleanup timeout.
type PipelineConfig struct {
	PosterFolder      string
	VideoFolder       string
	CompensateTimeout time.Duration
}

// MoviePipeline creates, updates and deletes movies together with their
// poster and video on the media host.
type MoviePipeline struct {
	store   repository.MovieStore
	media   media.Gateway
	orphans OrphanReporter
	cfg     PipelineConfig
}

// NewMoviePipeline wires a pipeline.  orphans may be nil, in which case
// failed destroys are only logged and counted.
func NewMoviePipeline(store repository.MovieStore, gw media.Gateway, orphans OrphanReporter, cfg PipelineConfig) *MoviePipeline {
	if cfg.PosterFolder == "" {
		cfg.PosterFolder = "movies/posters"
	}
	if cfg.VideoFolder == "" {
		cfg.VideoFolder = "movies/videos"
	}
	if cfg.CompensateTimeout <= 0 {
		cfg.CompensateTimeout = 30 * time.Second
	}
	return &MoviePipeline{store: store, media: gw, orphans: orphans, cfg: cfg}
}

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Create uploads the poster and video, validates the form, checks the
// title is free and stores the movie.  Uploaded assets are destroyed when
// any step after the upload fails.
func (p *MoviePipeline) Create(ctx context.Context, in MovieInput) (model.Movie, error) {
	m, err := p.run(ctx, opCreate, model.Movie{}, in)
	metrics.RecordPipeline(opCreate, outcome(err))
	return m, err
}

// Update replaces the fields and files present in the request on the movie
// with the given id.  On success the replaced assets are destroyed; on
// failure only the newly uploaded ones are.
func (p *MoviePipeline) Update(ctx context.Context, id string, in MovieInput) (model.Movie, error) {
	existing, err := p.store.GetByID(ctx, id)
	if err != nil {
		err = lookupError(err)
		metrics.RecordPipeline(opUpdate, outcome(err))
		return model.Movie{}, err
	}
	m, err := p.run(ctx, opUpdate, existing, in)
	metrics.RecordPipeline(opUpdate, outcome(err))
	return m, err
}

// Delete removes the movie and then destroys its assets.  A failed destroy
// does not fail the delete.
func (p *MoviePipeline) Delete(ctx context.Context, id string) (model.Movie, error) {
	m, err := p.store.GetByID(ctx, id)
	if err != nil {
		err = lookupError(err)
	} else if derr := p.store.Delete(ctx, id); derr != nil {
		err = persistError(opDelete, derr)
	}
	if err != nil {
		metrics.RecordPipeline(opDelete, outcome(err))
		return model.Movie{}, err
	}
	p.release(ctx, m.ID, ownedAssets(m))
	metrics.RecordPipeline(opDelete, outcome(nil))
	logging.Ctx(ctx).Info().Str("movie_id", m.ID).Msg("movie deleted")
	return m, nil
}

func (p *MoviePipeline) run(ctx context.Context, op string, existing model.Movie, in MovieInput) (model.Movie, error) {
	if err := checkFiles(in, op == opCreate); err != nil {
		return model.Movie{}, err
	}

	sg := saga.New(p.logCompensationFailure)
	fail := func(err error) (model.Movie, error) {
		p.compensate(ctx, sg)
		return model.Movie{}, err
	}

	poster, video, err := p.uploadAll(ctx, sg, in)
	if err != nil {
		return fail(err)
	}

	var base validation.MovieFields
	if op == opUpdate {
		base = validation.FieldsFromMovie(existing)
	}
	fields, verr := validation.ParseMovieForm(in.Values, base)
	if verr != nil {
		return fail(&ValidationError{Details: verr})
	}

	if err := p.checkTitle(ctx, fields.Title, existing.ID); err != nil {
		return fail(err)
	}

	rec := existing.Clone()
	fields.ApplyTo(&rec)
	var replaced []media.Asset
	if poster != nil {
		replaced = append(replaced, media.Asset{URL: rec.PosterURL, AssetID: rec.PosterAssetID, Kind: model.MediaImage})
		rec.PosterURL, rec.PosterAssetID = poster.URL, poster.AssetID
	}
	if video != nil {
		replaced = append(replaced, media.Asset{URL: rec.VideoURL, AssetID: rec.VideoAssetID, Kind: model.MediaVideo})
		rec.VideoURL, rec.VideoAssetID = video.URL, video.AssetID
	}
	if verr := validation.ValidateMovie(rec); verr != nil {
		return fail(&ValidationError{Details: verr})
	}

	if op == opCreate {
		err = p.store.Create(ctx, &rec)
	} else {
		rec, err = p.store.Update(ctx, rec)
	}
	if err != nil {
		return fail(persistError(op, err))
	}
	sg.Commit()

	if op == opUpdate {
		p.release(ctx, rec.ID, replaced)
	}
	logging.Ctx(ctx).Info().Str("op", op).Str("movie_id", rec.ID).Str("title", rec.Title).Msg("movie stored")
	return rec, nil
}

// uploadAll uploads the present files concurrently and waits for both.
// Each successful upload registers its destroy in sg as soon as it lands,
// so a failure of the other one only undoes what exists.
func (p *MoviePipeline) uploadAll(ctx context.Context, sg *saga.Saga, in MovieInput) (poster, video *media.Asset, err error) {
	var g errgroup.Group
	upload := func(f File, kind model.MediaKind, folder string, dst **media.Asset) func() error {
		return func() error {
			a, err := p.media.Upload(ctx, f.Path, media.UploadOptions{Folder: folder, Kind: kind})
			metrics.RecordUpload(string(kind), err)
			if err != nil {
				var ue *media.UpstreamError
				if !errors.As(err, &ue) {
					err = &media.UpstreamError{Op: "upload", Kind: kind, Err: err}
				}
				return err
			}
			sg.Add(string(kind)+":"+a.AssetID, func(ctx context.Context) error {
				return p.destroy(ctx, a, queue.ReasonCompensate, "")
			})
			*dst = &a
			return nil
		}
	}
	if len(in.Posters) == 1 {
		g.Go(upload(in.Posters[0], model.MediaImage, p.cfg.PosterFolder, &poster))
	}
	if len(in.Videos) == 1 {
		g.Go(upload(in.Videos[0], model.MediaVideo, p.cfg.VideoFolder, &video))
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return poster, video, nil
}

// checkTitle fails with ErrConflict when a movie other than selfID holds
// title.
func (p *MoviePipeline) checkTitle(ctx context.Context, title, selfID string) error {
	found, err := p.store.FindByTitle(ctx, title)
	switch {
	case errors.Is(err, repository.ErrMovieNotFound):
		return nil
	case err != nil:
		return &StorageError{Op: "find movie by title", Err: err}
	case found.ID != selfID:
		return ErrConflict
	}
	return nil
}

// compensate runs the pending compensations on a context that survives
// the request being cancelled.
func (p *MoviePipeline) compensate(ctx context.Context, sg *saga.Saga) {
	if sg.Len() == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.CompensateTimeout)
	defer cancel()
	if failed := sg.Compensate(cctx); failed > 0 {
		logging.Ctx(ctx).Warn().Int("failed", failed).Msg("compensation left orphaned media")
	}
}

// release destroys assets a movie no longer references.  Failures are
// logged and reported, never returned.
func (p *MoviePipeline) release(ctx context.Context, movieID string, assets []media.Asset) {
	if len(assets) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.CompensateTimeout)
	defer cancel()
	for _, a := range assets {
		if a.AssetID == "" {
			continue
		}
		if err := p.destroy(cctx, a, queue.ReasonRelease, movieID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("asset_id", a.AssetID).Str("movie_id", movieID).
				Msg("release of replaced media failed")
		}
	}
}

// destroy removes one asset, counts the attempt and reports an orphan when
// it fails.
func (p *MoviePipeline) destroy(ctx context.Context, a media.Asset, reason, movieID string) error {
	err := p.media.Destroy(ctx, a.AssetID, a.Kind)
	metrics.RecordDestroy(reason, err)
	if err == nil || p.orphans == nil {
		return err
	}
	ev := queue.MediaOrphanedEvent{
		AssetID:    a.AssetID,
		Kind:       a.Kind,
		URL:        a.URL,
		MovieID:    movieID,
		Reason:     reason,
		Error:      err.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if perr := p.orphans.PublishMediaOrphaned(ctx, ev); perr != nil {
		logging.Ctx(ctx).Error().Err(perr).Str("asset_id", a.AssetID).Msg("orphan event not published")
	}
	return err
}

func (p *MoviePipeline) logCompensationFailure(ctx context.Context, step string, err error) {
	logging.Ctx(ctx).Warn().Err(err).Str("step", step).Msg("compensating destroy failed")
}

func ownedAssets(m model.Movie) []media.Asset {
	return []media.Asset{
		{URL: m.PosterURL, AssetID: m.PosterAssetID, Kind: model.MediaImage},
		{URL: m.VideoURL, AssetID: m.VideoAssetID, Kind: model.MediaVideo},
	}
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrMovieNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: "get movie", Err: err}
}

func persistError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, repository.ErrMovieNotFound):
		return ErrNotFound
	}
	return &StorageError{Op: op + " movie", Err: err}
}

func outcome(err error) string {
	var (
		ve *ValidationError
		ue *media.UpstreamError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingFiles):
		return "missing_files"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &ue):
		return "upstream"
	}
	return "storage"
}
