// Package repository defines the persistence gateway for users and movies
// and its two backends, MongoDB and MySQL.  Absence and uniqueness
// violations are reported with the sentinel values below so that higher
// layers such as handlers can distinguish them from storage failures.
package repository

import "errors"

// ErrUserNotFound is returned when no user matches the lookup.  Malformed
// ids are reported the same way.  Handlers should translate this into an
// HTTP 404 response.
var ErrUserNotFound = errors.New("user not found")

// ErrMovieNotFound is returned when no movie matches the lookup.
var ErrMovieNotFound = errors.New("movie not found")

// ErrDuplicate is returned when an insert or update violates a unique
// index (users.username, movies.title).
var ErrDuplicate = errors.New("duplicate key")
