package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// UploadConfig controls where multipart files are spooled and how large
// each may be.
type UploadConfig struct {
	Dir          string
	MaxFileBytes int64
}

func (u UploadConfig) withDefaults() UploadConfig {
	if u.Dir == "" {
		u.Dir = filepath.Join("public", "temp")
	}
	if u.MaxFileBytes <= 0 {
		u.MaxFileBytes = 100 << 20
	}
	return u
}

// readForm parses a multipart movie form and copies the poster and video
// parts into the upload directory.  cleanup removes every spooled file and
// is safe to call even when readForm failed.
func (h *MovieHandler) readForm(c echo.Context) (service.MovieInput, func(), error) {
	var spooled []string
	cleanup := func() {
		for _, p := range spooled {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.Ctx(c.Request().Context()).Warn().Err(err).Str("path", p).Msg("remove temp upload")
			}
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			// Plain form or empty body: no files, fields only.
			if perr := c.Request().ParseForm(); perr != nil {
				return service.MovieInput{}, cleanup, badForm("could not parse form")
			}
			return service.MovieInput{Values: c.Request().PostForm}, cleanup, nil
		}
		return service.MovieInput{}, cleanup, badForm("could not parse multipart form")
	}
	defer func() { _ = form.RemoveAll() }()

	if err := os.MkdirAll(h.Uploads.Dir, 0o755); err != nil {
		return service.MovieInput{}, cleanup, fmt.Errorf("create upload dir: %w", err)
	}

	in := service.MovieInput{Values: form.Value}
	verr := &validation.RequestValidationError{}
	for _, field := range []struct {
		name string
		dst  *[]service.File
	}{{"poster", &in.Posters}, {"video", &in.Videos}} {
		for _, fh := range form.File[field.name] {
			if fh.Size > h.Uploads.MaxFileBytes {
				verr.Add(field.name, "max", fmt.Sprintf("%s must be at most %d bytes", field.name, h.Uploads.MaxFileBytes))
				continue
			}
			p, err := h.spool(fh)
			if p != "" {
				spooled = append(spooled, p)
			}
			if err != nil {
				return service.MovieInput{}, cleanup, err
			}
			*field.dst = append(*field.dst, service.File{Path: p, Name: fh.Filename, Size: fh.Size})
		}
	}
	if !verr.Empty() {
		return service.MovieInput{}, cleanup, &service.ValidationError{Details: verr}
	}
	return in, cleanup, nil
}

// spool copies one multipart part to a uniquely named file.
func (h *MovieHandler) spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), uuid.NewString()[:8], safeName(fh.Filename))
	p := filepath.Join(h.Uploads.Dir, name)
	dst, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	if _, err := io.Copy(dst, io.LimitReader(src, h.Uploads.MaxFileBytes)); err != nil {
		_ = dst.Close()
		return p, fmt.Errorf("write temp upload: %w", err)
	}
	return p, dst.Close()
}

// safeName keeps the base name and replaces anything unusual so client
// names cannot escape the upload directory.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}

func badForm(msg string) error {
	verr := &validation.RequestValidationError{}
	verr.Add("body", "multipart", msg)
	return &service.ValidationError{Details: verr}
}
