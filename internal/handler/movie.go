package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/service"
)

// MoviePipeline is the part of service.MoviePipeline the handlers call.
type MoviePipeline interface {
	Create(ctx context.Context, in service.MovieInput) (model.Movie, error)
	Update(ctx context.Context, id string, in service.MovieInput) (model.Movie, error)
	Delete(ctx context.Context, id string) (model.Movie, error)
}

// MovieHandler serves the /api/movies routes.
type MovieHandler struct {
	Movies   repository.MovieStore
	Pipeline MoviePipeline
	Uploads  UploadConfig
}

// NewMovieHandler panics on a nil dependency.
func NewMovieHandler(movies repository.MovieStore, pipeline MoviePipeline, uploads UploadConfig) *MovieHandler {
	if movies == nil || pipeline == nil {
		panic("nil dependency passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies, Pipeline: pipeline, Uploads: uploads.withDefaults()}
}

// createdMovie is the 201 body of POST /api/movies/create.
type createdMovie struct {
	Message       string      `json:"message"`
	Movie         model.Movie `json:"movie"`
	PosterAssetID string      `json:"poster_asset_id"`
	VideoAssetID  string      `json:"video_asset_id"`
}

// Create handles POST /api/movies/create.
func (h *MovieHandler) Create(c echo.Context) error {
	in, cleanup, err := h.readForm(c)
	defer cleanup()
	if err != nil {
		return h.pipelineFailed(c, err)
	}
	m, err := h.Pipeline.Create(c.Request().Context(), in)
	if err != nil {
		return h.pipelineFailed(c, err)
	}
	return c.JSON(http.StatusCreated, createdMovie{
		Message:       "Movie created successfully",
		Movie:         m,
		PosterAssetID: m.PosterAssetID,
		VideoAssetID:  m.VideoAssetID,
	})
}

// Update handles PUT /api/movies/update/:id.
func (h *MovieHandler) Update(c echo.Context) error {
	in, cleanup, err := h.readForm(c)
	defer cleanup()
	if err != nil {
		return h.pipelineFailed(c, err)
	}
	m, err := h.Pipeline.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.pipelineFailed(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /api/movies/delete/:id.
func (h *MovieHandler) Delete(c echo.Context) error {
	if _, err := h.Pipeline.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.pipelineFailed(c, err)
	}
	return message(c, http.StatusOK, "movie deleted successfully")
}

// List handles GET /api/movies.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	if len(movies) == 0 {
		return message(c, http.StatusNotFound, "Movie not found")
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /api/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	m, err := h.Movies.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrMovieNotFound) {
		return message(c, http.StatusNotFound, "Movie not found")
	}
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MovieHandler) pipelineFailed(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrMissingFiles):
		return message(c, http.StatusBadRequest, "Poster and video files are required")
	case errors.As(err, &ve):
		return invalid(c, "Please fill the valid information.", ve.Details)
	case errors.Is(err, service.ErrNotFound):
		return message(c, http.StatusNotFound, "Movie not found")
	case errors.Is(err, service.ErrConflict):
		return message(c, http.StatusConflict, "Movie existed already")
	}
	// Storage and media host failures alike.
	return internalError(c, err)
}
