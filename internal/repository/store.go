package repository

import (
	"context"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// UserStore persists users.  Lookups return ErrUserNotFound when nothing
// matches; Create and Update return ErrDuplicate on a username clash.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// Create assigns u.ID on success.
	Create(ctx context.Context, u *model.User) error
	// Update replaces every field of the user with id u.ID.
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// MovieStore persists movies.  Lookups return ErrMovieNotFound when nothing
// matches; Create and Update return ErrDuplicate on a title clash.
type MovieStore interface {
	List(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id string) (model.Movie, error)
	FindByTitle(ctx context.Context, title string) (model.Movie, error)
	// Create assigns m.ID, m.CreatedAt and m.UpdatedAt on success.
	Create(ctx context.Context, m *model.Movie) error
	// Update replaces every field except the id and creation time.
	Update(ctx context.Context, m model.Movie) (model.Movie, error)
	Delete(ctx context.Context, id string) error
}
