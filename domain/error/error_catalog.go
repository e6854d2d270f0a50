package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials  ErrorCode = "AUTH_1001"
	ErrCodeInvalidToken        ErrorCode = "AUTH_1003"
	ErrCodeInvalidRefreshToken ErrorCode = "AUTH_1006"
	ErrCodeUsernameTaken       ErrorCode = "AUTH_1009"

	// Validation Errors (2xxx)
	ErrCodeInvalidRequest ErrorCode = "VALID_2005"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Resource Errors (4xxx)
	ErrCodeNotFound ErrorCode = "RES_4004"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
	ErrCodeServiceUnavailable  ErrorCode = "SERVER_6002"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on the code so wrapped copies created by WithDetails or
// WithCause still compare equal to the catalog sentinels.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy carrying additional detail text.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy wrapping the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// Catalog. Authentication failures share one message so callers cannot tell
// an unknown username from a wrong password.
var (
	ErrUsernameTaken = &AppError{
		Code:    ErrCodeUsernameTaken,
		Message: "username already registered",
		Status:  http.StatusConflict,
	}
	ErrInvalidCredentials = &AppError{
		Code:    ErrCodeInvalidCredentials,
		Message: "invalid username or password",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidAccessToken = &AppError{
		Code:    ErrCodeInvalidToken,
		Message: "could not validate credentials",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidRefreshToken = &AppError{
		Code:    ErrCodeInvalidRefreshToken,
		Message: "invalid or expired refresh token",
		Status:  http.StatusUnauthorized,
	}
	ErrValidation = &AppError{
		Code:    ErrCodeInvalidRequest,
		Message: "validation failed",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrNotFound = &AppError{
		Code:    ErrCodeNotFound,
		Message: "resource not found",
		Status:  http.StatusNotFound,
	}
	ErrRateLimited = &AppError{
		Code:    ErrCodeRateLimitExceeded,
		Message: "too many requests, try again later",
		Status:  http.StatusTooManyRequests,
	}
	ErrUnavailable = &AppError{
		Code:    ErrCodeServiceUnavailable,
		Message: "service unavailable",
		Status:  http.StatusServiceUnavailable,
	}
	ErrInternal = &AppError{
		Code:    ErrCodeInternalServerError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
	}
)

// NewValidationError builds a Validation error with a caller-facing reason.
func NewValidationError(details string) *AppError {
	return ErrValidation.WithDetails(details)
}
