package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// UserHandler serves the /api/users routes.
type UserHandler struct {
	Users repository.UserStore
}

// NewUserHandler panics on a nil store.
func NewUserHandler(users repository.UserStore) *UserHandler {
	if users == nil {
		panic("nil store passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// Create handles POST /api/users/create.
func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var body validation.UserPayload
	if err := c.Bind(&body); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	body.Normalize()
	if ve := validation.ValidateStruct(body); ve != nil {
		return invalid(c, "invalid user payload", ve)
	}

	// Email and username are both checked up front; the unique index on
	// username still catches a concurrent insert.
	for _, lookup := range []func() (model.User, error){
		func() (model.User, error) { return h.Users.FindByEmail(ctx, body.Email) },
		func() (model.User, error) { return h.Users.FindByUsername(ctx, body.Username) },
	} {
		_, err := lookup()
		if err == nil {
			return message(c, http.StatusBadRequest, "user already exist")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return internalError(c, err)
		}
	}

	u := body.User()
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusBadRequest, "user already exist")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "User added successfully", "user": u})
}

// List handles GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	if len(users) == 0 {
		return message(c, http.StatusNotFound, "User data not found")
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	u, err := h.Users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.lookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update handles PUT /api/users/update/:id.  Fields missing from the body
// keep their stored values.
func (h *UserHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	existing, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.lookupFailed(c, err)
	}
	var patch validation.UserPatch
	if err := c.Bind(&patch); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	patch.Normalize()
	if ve := validation.ValidateStruct(patch); ve != nil {
		return invalid(c, "invalid user payload", ve)
	}

	updated, err := h.Users.Update(ctx, patch.Apply(existing))
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return message(c, http.StatusBadRequest, "username already taken")
	case err != nil:
		return h.lookupFailed(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/users/delete/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.Users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.lookupFailed(c, err)
	}
	return message(c, http.StatusOK, "user deleted successfully")
}

func (h *UserHandler) lookupFailed(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return message(c, http.StatusNotFound, "User not found")
	}
	return internalError(c, err)
}
