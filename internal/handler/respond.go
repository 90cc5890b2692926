package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// errorBody is the JSON body of every error response.  Errors is only set
// for validation failures.
type errorBody struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Message: msg})
}

func invalid(c echo.Context, msg string, ve *validation.RequestValidationError) error {
	return c.JSON(http.StatusBadRequest, errorBody{Message: msg, Errors: ve.Errors()})
}

// internalError reports an unexpected failure with its raw message, which
// the frontend shows as is.
func internalError(c echo.Context, err error) error {
	logging.Ctx(c.Request().Context()).Error().Err(err).
		Str("method", c.Request().Method).Str("route", c.Path()).Msg("request failed")
	return message(c, http.StatusInternalServerError, err.Error())
}
