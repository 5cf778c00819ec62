package middleware

import (
	"net/http"

	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/errors"

	"github.com/labstack/echo/v4"
)

func statusFromError(err error) int {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
