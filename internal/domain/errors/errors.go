package errors

import (
	"net/http"

	"leadintake/internal/errors"
)

// AppError is an error that knows how it is presented to API callers.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string // stable machine-readable code
	Message() string   // client-facing detail string
	Details() string   // internal context, never rendered for 5xx
}

// BaseError is the value type behind every predefined AppError.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Details() string {
	return e.details
}

// Is matches any BaseError carrying the same code, so WithDetails copies still
// compare equal to the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WithDetails returns a copy carrying internal context.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

var (
	// Credential and registration errors
	ErrInvalidCredential = NewBaseError(
		http.StatusBadRequest,
		"INVALID_CREDENTIAL",
		"invalid credential",
		"",
	)

	ErrEmailAlreadyUsed = NewBaseError(
		http.StatusBadRequest,
		"EMAIL_ALREADY_USED",
		"email address already used",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"not authenticated",
		"",
	)

	// Refresh token errors
	ErrRefreshNotFound = NewBaseError(
		http.StatusNotFound,
		"REFRESH_TOKEN_NOT_FOUND",
		"refresh token not found",
		"",
	)

	ErrRefreshExpired = NewBaseError(
		http.StatusBadRequest,
		"REFRESH_TOKEN_EXPIRED",
		"refresh token expired",
		"",
	)

	ErrRefreshAlreadyUsed = NewBaseError(
		http.StatusBadRequest,
		"REFRESH_TOKEN_ALREADY_USED",
		"refresh token already used",
		"",
	)

	// Lead intake errors
	ErrNoEligibleAttorney = NewBaseError(
		http.StatusBadRequest,
		"NO_ELIGIBLE_ATTORNEY",
		"no valid attorney found",
		"",
	)

	ErrLeadNotFound = NewBaseError(
		http.StatusNotFound,
		"LEAD_NOT_FOUND",
		"lead not found",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"validation failed",
		"",
	)

	// Backend errors
	ErrUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"UNAVAILABLE",
		"service unavailable",
		"",
	)

	ErrInternal = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// UnavailableError reports a persistence or backend fault. It presents as
// ErrUnavailable and keeps the cause for logs.
type UnavailableError struct {
	err     error
	details string
}

// NewUnavailableError wraps a backend fault. details names the failed operation.
func NewUnavailableError(err error, details string) AppError {
	return &UnavailableError{
		err:     err,
		details: details,
	}
}

func (e *UnavailableError) Error() string {
	return errors.Wrap(e.err, e.details).Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) HTTPCode() int {
	return ErrUnavailable.HTTPCode()
}

func (e *UnavailableError) ErrorCode() string {
	return ErrUnavailable.ErrorCode()
}

func (e *UnavailableError) Message() string {
	return ErrUnavailable.Message()
}

func (e *UnavailableError) Details() string {
	return e.details
}
