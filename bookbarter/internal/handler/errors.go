package handler

import (
	"net/http"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrDuplicate):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrStorageDisabled):
		code = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(code, err.Error())
}
