package error

import (
	"errors"
	"net/http"

	domainerr "github.com/fixora/storefront/domain/error"
)

// MapError resolves any error returned by a usecase into the catalog entry
// that should be written to the client. Unknown errors become Internal so
// driver messages never leak into responses.
func MapError(err error) *domainerr.AppError {
	if err == nil {
		return nil
	}

	var appErr *domainerr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return domainerr.ErrInternal.WithCause(err)
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return MapError(err).Status
}

// PublicMessage is the message safe to show to clients. Validation details
// are included because they only describe the caller's own input.
func PublicMessage(err error) string {
	appErr := MapError(err)
	if appErr.Code == domainerr.ErrCodeInvalidRequest && appErr.Details != "" {
		return appErr.Details
	}
	return appErr.Message
}
