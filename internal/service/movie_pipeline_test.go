package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/testinfra"
)

// ===================================================================================================
// Helpers
// ===================================================================================================

type fixture struct {
	store    *testinfra.MovieStore
	gw       *testinfra.Gateway
	orphans  *testinfra.Orphans
	pipeline *MoviePipeline
}

func newFixture(t *testing.T, seed ...model.Movie) *fixture {
	t.Helper()
	f := &fixture{
		store:   testinfra.NewMovieStore(seed...),
		gw:      testinfra.NewGateway(),
		orphans: &testinfra.Orphans{},
	}
	for _, m := range seed {
		f.gw.Seed(m.PosterAssetID, model.MediaImage)
		f.gw.Seed(m.VideoAssetID, model.MediaVideo)
	}
	f.pipeline = NewMoviePipeline(f.store, f.gw, f.orphans, PipelineConfig{CompensateTimeout: time.Second})
	return f
}

func file(t *testing.T, name string) File {
	t.Helper()
	p, err := testinfra.TempFile(t.TempDir(), name)
	if err != nil {
		t.Fatal(err)
	}
	return File{Path: p, Name: name, Size: 4}
}

func inceptionForm() url.Values {
	return url.Values{
		"title":          {"Inception"},
		"description":    {"A thief who steals corporate secrets through dreams."},
		"director":       {"Christopher Nolan"},
		"release_year":   {"2010"},
		"average_rating": {"9"},
		"genre":          {`["Sci-Fi"]`},
		"cast":           {`["Leonardo DiCaprio"]`},
	}
}

func createInput(t *testing.T, form url.Values) MovieInput {
	return MovieInput{
		Values:  form,
		Posters: []File{file(t, "poster.jpg")},
		Videos:  []File{file(t, "trailer.mp4")},
	}
}

func storedMovie() model.Movie {
	return model.Movie{
		ID:            "7",
		Title:         "Heat",
		Description:   "A group of professional bank robbers.",
		Genre:         []string{"Crime"},
		Cast:          []string{"Al Pacino", "Robert De Niro"},
		Director:      "Michael Mann",
		ReleaseYear:   1995,
		AverageRating: 8.3,
		PosterURL:     "https://media.test/old-poster",
		PosterAssetID: "old-poster",
		VideoURL:      "https://media.test/old-video",
		VideoAssetID:  "old-video",
	}
}

// ===================================================================================================
// Create
// ===================================================================================================

func TestCreate_Inception(t *testing.T) {
	f := newFixture(t)

	m, err := f.pipeline.Create(context.Background(), createInput(t, inceptionForm()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" || m.Title != "Inception" {
		t.Errorf("movie = %+v", m)
	}
	if m.PosterURL == "" || m.VideoURL == "" || m.PosterAssetID == "" || m.VideoAssetID == "" {
		t.Errorf("media refs missing: %+v", m)
	}
	if m.ReleaseYear != 2010 || m.AverageRating != 9 {
		t.Errorf("numbers = %d/%v", m.ReleaseYear, m.AverageRating)
	}
	if f.gw.Live() != 2 || len(f.gw.Destroyed()) != 0 {
		t.Errorf("live=%d destroyed=%v", f.gw.Live(), f.gw.Destroyed())
	}
	for _, u := range f.gw.Uploads() {
		want := "movies/posters"
		if u.Opts.Kind == model.MediaVideo {
			want = "movies/videos"
		}
		if u.Opts.Folder != want {
			t.Errorf("%s uploaded to %q, want %q", u.Opts.Kind, u.Opts.Folder, want)
		}
	}
}

func TestCreate_MissingFilesUploadsNothing(t *testing.T) {
	f := newFixture(t)
	in := createInput(t, inceptionForm())
	in.Videos = nil

	_, err := f.pipeline.Create(context.Background(), in)
	if !errors.Is(err, ErrMissingFiles) {
		t.Fatalf("err = %v, want ErrMissingFiles", err)
	}
	if n := len(f.gw.Uploads()); n != 0 {
		t.Errorf("uploads = %d, want 0", n)
	}
}

func TestCreate_BadExtensionUploadsNothing(t *testing.T) {
	f := newFixture(t)
	in := createInput(t, inceptionForm())
	in.Posters = []File{file(t, "poster.gif")}

	_, err := f.pipeline.Create(context.Background(), in)
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Details.Has("poster") {
		t.Fatalf("err = %v, want poster validation error", err)
	}
	if n := len(f.gw.Uploads()); n != 0 {
		t.Errorf("uploads = %d, want 0", n)
	}
}

func TestCreate_InvalidBodyCompensatesBothUploads(t *testing.T) {
	f := newFixture(t)
	form := inceptionForm()
	form.Set("release_year", "1800")
	form.Set("genre", "[]")

	_, err := f.pipeline.Create(context.Background(), createInput(t, form))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if !ve.Details.Has("release_year") || !ve.Details.Has("genre") {
		t.Errorf("details = %v", ve.Details.Errors())
	}
	if got := len(f.gw.Destroyed()); got != 2 {
		t.Errorf("destroyed %d assets, want 2", got)
	}
	if f.gw.Live() != 0 {
		t.Errorf("live assets = %d, want 0", f.gw.Live())
	}
	if f.store.Creates != 0 {
		t.Errorf("creates = %d, want 0", f.store.Creates)
	}
}

func TestCreate_DuplicateTitleCompensates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.pipeline.Create(ctx, createInput(t, inceptionForm())); err != nil {
		t.Fatal(err)
	}
	baseline := f.gw.Live()

	_, err := f.pipeline.Create(ctx, createInput(t, inceptionForm()))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if f.gw.Live() != baseline {
		t.Errorf("live assets = %d, want baseline %d", f.gw.Live(), baseline)
	}
	if f.store.Len() != 1 {
		t.Errorf("stored movies = %d, want 1", f.store.Len())
	}
}

func TestCreate_OneUploadFailsOtherIsDestroyed(t *testing.T) {
	f := newFixture(t)
	f.gw.UploadErr[model.MediaVideo] = testinfra.ErrBoom

	_, err := f.pipeline.Create(context.Background(), createInput(t, inceptionForm()))
	if !errors.Is(err, testinfra.ErrBoom) {
		t.Fatalf("err = %v, want upstream boom", err)
	}
	destroyed := f.gw.Destroyed()
	if len(destroyed) != 1 {
		t.Fatalf("destroyed = %v, want the poster only", destroyed)
	}
	if f.gw.Live() != 0 {
		t.Errorf("live = %d", f.gw.Live())
	}
}

func TestCreate_StorageFailureCompensates(t *testing.T) {
	f := newFixture(t)
	f.store.CreateErr = errors.New("connection reset")

	_, err := f.pipeline.Create(context.Background(), createInput(t, inceptionForm()))
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	if f.gw.Live() != 0 || len(f.gw.Destroyed()) != 2 {
		t.Errorf("live=%d destroyed=%v", f.gw.Live(), f.gw.Destroyed())
	}
}

func TestCreate_FailedCompensationPublishesOrphan(t *testing.T) {
	f := newFixture(t)
	f.store.CreateErr = errors.New("disk full")
	// The poster gets suffix 1 or 2 depending on which upload lands first.
	f.gw.DestroyErr["movies/posters/image-1"] = testinfra.ErrBoom
	f.gw.DestroyErr["movies/posters/image-2"] = testinfra.ErrBoom

	if _, err := f.pipeline.Create(context.Background(), createInput(t, inceptionForm())); err == nil {
		t.Fatal("expected error")
	}
	events := f.orphans.Events()
	if len(events) != 1 {
		t.Fatalf("events = %+v, want 1", events)
	}
	ev := events[0]
	if ev.Kind != model.MediaImage || ev.Reason != queue.ReasonCompensate || ev.Error == "" {
		t.Errorf("event = %+v", ev)
	}
}

func TestCreate_CancelledRequestStillCompensates(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	form := inceptionForm()
	form.Set("director", "")

	in := createInput(t, form)
	cancel()
	if _, err := f.pipeline.Create(ctx, in); err == nil {
		t.Fatal("expected error")
	}
	if f.gw.Live() != 0 {
		t.Errorf("live = %d, want 0", f.gw.Live())
	}
}

// ===================================================================================================
// Update
// ===================================================================================================

func TestUpdate_NotFoundBeforeUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Update(context.Background(), "404", createInput(t, inceptionForm()))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(f.gw.Uploads()) != 0 {
		t.Error("uploaded before the existence check")
	}
}

func TestUpdate_PosterOnlyReplacesOldPoster(t *testing.T) {
	old := storedMovie()
	f := newFixture(t, old)

	in := MovieInput{Values: url.Values{}, Posters: []File{file(t, "new.png")}}
	m, err := f.pipeline.Update(context.Background(), old.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.PosterAssetID == old.PosterAssetID {
		t.Error("poster not replaced")
	}
	if m.VideoAssetID != old.VideoAssetID || m.VideoURL != old.VideoURL {
		t.Error("video changed")
	}
	if m.Title != old.Title || len(m.Cast) != 2 {
		t.Errorf("fields not kept: %+v", m)
	}
	if f.gw.IsLive(old.PosterAssetID) {
		t.Error("old poster still live")
	}
	if !f.gw.IsLive(old.VideoAssetID) {
		t.Error("video destroyed")
	}
}

func TestUpdate_FieldsOnly(t *testing.T) {
	old := storedMovie()
	f := newFixture(t, old)

	m, err := f.pipeline.Update(context.Background(), old.ID, MovieInput{Values: url.Values{
		"title":          {"Heat (1995)"},
		"average_rating": {"8.5"},
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Title != "Heat (1995)" || m.AverageRating != 8.5 || m.Director != old.Director {
		t.Errorf("movie = %+v", m)
	}
	if len(f.gw.Uploads()) != 0 || len(f.gw.Destroyed()) != 0 {
		t.Error("media touched on a fields-only update")
	}
}

func TestUpdate_KeepOwnTitle(t *testing.T) {
	old := storedMovie()
	f := newFixture(t, old)

	if _, err := f.pipeline.Update(context.Background(), old.ID, MovieInput{Values: url.Values{"title": {old.Title}}}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestUpdate_TitleTakenDestroysOnlyNewUploads(t *testing.T) {
	old := storedMovie()
	other := storedMovie()
	other.ID, other.Title, other.PosterAssetID, other.VideoAssetID = "8", "Collateral", "p8", "v8"
	f := newFixture(t, old, other)

	in := MovieInput{
		Values:  url.Values{"title": {"Collateral"}},
		Posters: []File{file(t, "p.jpg")},
		Videos:  []File{file(t, "v.mov")},
	}
	_, err := f.pipeline.Update(context.Background(), old.ID, in)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	for _, id := range []string{old.PosterAssetID, old.VideoAssetID, "p8", "v8"} {
		if !f.gw.IsLive(id) {
			t.Errorf("%s destroyed", id)
		}
	}
	if f.gw.Live() != 4 {
		t.Errorf("live = %d, want 4", f.gw.Live())
	}
}

func TestUpdate_ReleaseFailureDoesNotFailRequest(t *testing.T) {
	old := storedMovie()
	f := newFixture(t, old)
	f.gw.DestroyErr[old.VideoAssetID] = testinfra.ErrBoom

	in := MovieInput{Values: url.Values{}, Videos: []File{file(t, "v.avi")}}
	if _, err := f.pipeline.Update(context.Background(), old.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	events := f.orphans.Events()
	if len(events) != 1 || events[0].Reason != queue.ReasonRelease || events[0].MovieID != old.ID {
		t.Errorf("events = %+v", events)
	}
}

// ===================================================================================================
// Delete
// ===================================================================================================

func TestDelete_ReleasesBothAssets(t *testing.T) {
	old := storedMovie()
	f := newFixture(t, old)

	if _, err := f.pipeline.Delete(context.Background(), old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.store.Len() != 0 || f.gw.Live() != 0 {
		t.Errorf("store=%d live=%d", f.store.Len(), f.gw.Live())
	}

	if _, err := f.pipeline.Delete(context.Background(), old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrMissingFiles, "missing_files"},
		{&ValidationError{}, "validation"},
		{ErrConflict, "conflict"},
		{ErrNotFound, "not_found"},
		{&StorageError{Op: "x", Err: errors.New("y")}, "storage"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
