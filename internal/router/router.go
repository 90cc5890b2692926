// Package router registers every HTTP route of the service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/movie-catalog/internal/handler"
)

// RegisterRoutes registers the operational endpoints, which are not rate
// limited, and the /api routes behind apiMiddleware.
func RegisterRoutes(e *echo.Echo, users *handler.UserHandler, movies *handler.MovieHandler, apiMiddleware ...echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", apiMiddleware...)
	registerUsers(api, users)
	registerMovies(api, movies)
}

func registerUsers(g *echo.Group, h *handler.UserHandler) {
	g.POST("/users/create", h.Create)
	g.GET("/users", h.List)
	g.GET("/users/:id", h.Get)
	g.PUT("/users/update/:id", h.Update)
	g.DELETE("/users/delete/:id", h.Delete)
}

func registerMovies(g *echo.Group, h *handler.MovieHandler) {
	g.POST("/movies/create", h.Create)
	g.GET("/movies", h.List)
	g.GET("/movies/:id", h.Get)
	g.PUT("/movies/update/:id", h.Update)
	g.DELETE("/movies/delete/:id", h.Delete)
}
