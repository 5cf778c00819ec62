// Package response renders the JSON bodies of the public API.
package response

import (
	"net/http"

	deliverycontext "leadintake/internal/delivery/context"
	domainerrors "leadintake/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail    string `json:"detail"`           // Human readable, stable per error kind
	Code      string `json:"code"`             // Machine-readable error code, e.g. "REFRESH_TOKEN_EXPIRED"
	Fields    string `json:"fields,omitempty"` // Validation context (only for 4xx errors)
	RequestID string `json:"request_id"`       // Request tracking ID
}

// IDList is returned by the listing endpoints.
type IDList struct {
	IDs []string `json:"ids"`
}

// Success writes data as the response body. Bodies are flat; the request ID travels in the
// X-Request-Id header.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Error returns an error response
func Error(c echo.Context, statusCode int, errorCode string, detail string, fields string) error {
	// Fields should not be included for 5xx errors or authentication/authorization errors
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		fields = ""
	}

	return c.JSON(statusCode, ErrorResponse{
		Detail:    detail,
		Code:      errorCode,
		Fields:    fields,
		RequestID: deliverycontext.GetRequestID(c),
	})
}

// BindingError returns a binding error response
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, domainerrors.ErrValidationFailed.ErrorCode(), domainerrors.ErrValidationFailed.Message(), message)
}

// Unauthorized returns a 401 error
func Unauthorized(c echo.Context) error {
	return Error(c, http.StatusUnauthorized, domainerrors.ErrUnauthorized.ErrorCode(), domainerrors.ErrUnauthorized.Message(), "")
}
