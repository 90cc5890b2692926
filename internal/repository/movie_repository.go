package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MovieRepo is the MySQL MovieStore over the `movies` table.  genre and
// cast are stored as JSON arrays.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, title, description, genres, cast_members, director, release_year,
	average_rating, poster_url, poster_asset_id, video_url, video_asset_id, created_at, updated_at`

// List returns every movie ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (model.Movie, error) {
	n, ok := parseID(id)
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	return r.getOne(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", n)
}

// FindByTitle fetches a movie by exact title.
func (r *MovieRepo) FindByTitle(ctx context.Context, title string) (model.Movie, error) {
	return r.getOne(ctx, "SELECT "+movieColumns+" FROM movies WHERE title = ? LIMIT 1", title)
}

// Create inserts m.  After the insert, a SELECT populates the id and the
// timestamp defaults so callers receive a fully populated record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	genres, cast, err := encodeLists(*m)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (title, description, genres, cast_members, director, release_year,
		average_rating, poster_url, poster_asset_id, video_url, video_asset_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, genres, cast, m.Director, m.ReleaseYear,
		m.AverageRating, m.PosterURL, m.PosterAssetID, m.VideoURL, m.VideoAssetID)
	if err != nil {
		return mapMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	*m = stored
	return nil
}

// Update replaces every mutable column and returns the stored row.
func (r *MovieRepo) Update(ctx context.Context, m model.Movie) (model.Movie, error) {
	n, ok := parseID(m.ID)
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	genres, cast, err := encodeLists(m)
	if err != nil {
		return model.Movie{}, err
	}
	const q = `UPDATE movies
	           SET title = ?, description = ?, genres = ?, cast_members = ?, director = ?,
	               release_year = ?, average_rating = ?, poster_url = ?, poster_asset_id = ?,
	               video_url = ?, video_asset_id = ?, updated_at = CURRENT_TIMESTAMP(3)
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		m.Title, m.Description, genres, cast, m.Director, m.ReleaseYear,
		m.AverageRating, m.PosterURL, m.PosterAssetID, m.VideoURL, m.VideoAssetID, n); err != nil {
		return model.Movie{}, mapMySQLError(err)
	}
	return r.GetByID(ctx, m.ID)
}

// Delete removes a movie by id.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return ErrMovieNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", n)
	if err != nil {
		return err
	}
	return deleted(res, ErrMovieNotFound)
}

func (r *MovieRepo) getOne(ctx context.Context, q string, args ...any) (model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

func scanMovie(s rowScanner) (model.Movie, error) {
	var (
		m            model.Movie
		id           uint64
		genres, cast []byte
	)
	if err := s.Scan(&id, &m.Title, &m.Description, &genres, &cast, &m.Director, &m.ReleaseYear,
		&m.AverageRating, &m.PosterURL, &m.PosterAssetID, &m.VideoURL, &m.VideoAssetID,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return model.Movie{}, err
	}
	m.ID = strconv.FormatUint(id, 10)
	if err := json.Unmarshal(genres, &m.Genre); err != nil {
		return model.Movie{}, err
	}
	if err := json.Unmarshal(cast, &m.Cast); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

func encodeLists(m model.Movie) (genres, cast []byte, err error) {
	if genres, err = json.Marshal(nonNil(m.Genre)); err != nil {
		return nil, nil, err
	}
	if cast, err = json.Marshal(nonNil(m.Cast)); err != nil {
		return nil, nil, err
	}
	return genres, cast, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
