package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/testinfra"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	movies := testinfra.NewMovieStore()
	pipeline := service.NewMoviePipeline(movies, testinfra.NewGateway(), nil, service.PipelineConfig{})
	RegisterRoutes(e,
		handler.NewUserHandler(testinfra.NewUserStore()),
		handler.NewMovieHandler(movies, pipeline, handler.UploadConfig{Dir: t.TempDir()}),
	)

	want := []string{
		"GET /healthz",
		"GET /metrics",
		"POST /api/users/create",
		"GET /api/users",
		"GET /api/users/:id",
		"PUT /api/users/update/:id",
		"DELETE /api/users/delete/:id",
		"POST /api/movies/create",
		"GET /api/movies",
		"GET /api/movies/:id",
		"PUT /api/movies/update/:id",
		"DELETE /api/movies/delete/:id",
	}
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("route %s not registered", w)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("/metrics = %d", rec.Code)
	}
}
