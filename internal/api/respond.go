package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mensa/internal/database"
	"mensa/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// mapError translates service and storage errors into HTTP responses.
// Expected rejections keep their message; anything else becomes an
// opaque 500.
func mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrBadDate),
		errors.Is(err, service.ErrValidation):
		return respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotApproved):
		return respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrWindowExceeded),
		errors.Is(err, service.ErrCutoffPassed):
		return respondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, database.ErrStatusConflict),
		errors.Is(err, database.ErrVariantInactive),
		errors.Is(err, database.ErrDuplicateEmail):
		return respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWrongTenant),
		errors.Is(err, database.ErrNotFound):
		// Cross-tenant lookups come back as not-found on purpose.
		return respondError(c, http.StatusNotFound, "not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
