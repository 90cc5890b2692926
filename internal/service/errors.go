// Package service holds the movie pipelines: multi-step operations that
// combine media uploads, validation and persistence, and undo the uploads
// when a later step fails.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/movie-catalog/internal/validation"
)

// ErrMissingFiles is returned by Create when the poster or the video is
// absent.  No upload has happened.
var ErrMissingFiles = errors.New("poster and video files are required")

// ErrConflict is returned when another movie already has the title.
var ErrConflict = errors.New("movie existed already")

// ErrNotFound is returned when the movie to update or delete does not exist.
var ErrNotFound = errors.New("movie not found")

// ValidationError carries per-field problems with the submitted files or
// form fields.
type ValidationError struct {
	Details *validation.RequestValidationError
}

func (e *ValidationError) Error() string { return e.Details.Error() }

func (e *ValidationError) Unwrap() error { return e.Details }

// StorageError wraps an unexpected failure of the movie store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
