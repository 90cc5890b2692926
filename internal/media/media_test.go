package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
)

type flakyGateway struct {
	uploadErr  error
	destroyErr error
	uploads    int
	destroys   int
}

func (g *flakyGateway) Upload(ctx context.Context, localPath string, opts UploadOptions) (Asset, error) {
	g.uploads++
	if g.uploadErr != nil {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: g.uploadErr}
	}
	return Asset{URL: "https://cdn.example.com/" + filepath.Base(localPath), AssetID: filepath.Base(localPath), Kind: opts.Kind}, nil
}

func (g *flakyGateway) Destroy(ctx context.Context, assetID string, kind model.MediaKind) error {
	g.destroys++
	return g.destroyErr
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBreaker_RemovesLocalFileOnSuccessAndFailure(t *testing.T) {
	ctx := context.Background()

	ok := NewBreaker(&flakyGateway{}, BreakerConfig{FailureThreshold: 3})
	p := tempFile(t, "poster.png")
	if _, err := ok.Upload(ctx, p, UploadOptions{Kind: model.MediaImage}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after success: %v", err)
	}

	bad := NewBreaker(&flakyGateway{uploadErr: errors.New("boom")}, BreakerConfig{FailureThreshold: 3})
	p = tempFile(t, "video.mp4")
	if _, err := bad.Upload(ctx, p, UploadOptions{Kind: model.MediaVideo}); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after failure: %v", err)
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := &flakyGateway{uploadErr: errors.New("host down")}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, _ = b.Upload(ctx, tempFile(t, "p.png"), UploadOptions{Kind: model.MediaImage})
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	p := tempFile(t, "p.png")
	_, err := b.Upload(ctx, p, UploadOptions{Kind: model.MediaImage})
	if !errors.Is(err, ErrMediaUnavailable) {
		t.Errorf("err = %v, want ErrMediaUnavailable", err)
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Op != "upload" {
		t.Errorf("err = %#v, want *UpstreamError{Op: upload}", err)
	}
	if inner.uploads != 2 {
		t.Errorf("inner uploads = %d, want 2 (open breaker must not call through)", inner.uploads)
	}
	if _, statErr := os.Stat(p); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("temp file kept while breaker open")
	}

	if err := b.Destroy(ctx, "x", model.MediaImage); !errors.Is(err, ErrMediaUnavailable) {
		t.Errorf("destroy err = %v, want ErrMediaUnavailable", err)
	}
}

func TestBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	inner := &flakyGateway{uploadErr: context.Canceled}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := b.Upload(ctx, tempFile(t, "p.png"), UploadOptions{Kind: model.MediaImage})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("upload %d err = %v, want context.Canceled", i, err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
	if inner.uploads != 3 {
		t.Errorf("inner uploads = %d, want 3", inner.uploads)
	}
}

func TestDestroyOutcome(t *testing.T) {
	tests := []struct {
		result, msg string
		wantErr     bool
	}{
		{"ok", "", false},
		{"not found", "", false},
		{"", "", true},
		{"error", "", true},
		{"ok", "invalid signature", true},
	}
	for _, tt := range tests {
		err := destroyOutcome(tt.result, tt.msg)
		if (err != nil) != tt.wantErr {
			t.Errorf("destroyOutcome(%q, %q) = %v, wantErr %v", tt.result, tt.msg, err, tt.wantErr)
		}
	}
}

func TestObjectKey(t *testing.T) {
	k := objectKey("/movies/posters/", "/tmp/123-Poster.PNG")
	if !strings.HasPrefix(k, "movies/posters/") || !strings.HasSuffix(k, ".png") {
		t.Errorf("objectKey = %q", k)
	}
	if k2 := objectKey("", "/tmp/a.mp4"); strings.Contains(k2, "/") {
		t.Errorf("objectKey without folder = %q", k2)
	}
}
