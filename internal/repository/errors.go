// Package repository defines error types that are reused across the
// repository and service layers. These sentinel values allow higher
// layers such as handlers to distinguish between different failure
// scenarios and map them onto HTTP status codes. For example,
// ErrConflict indicates that a write lost a race against concurrent
// state (two staff members reserving the same table), while
// ErrTransient signals a backend or network failure the caller may
// choose to retry.
package repository

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when input is rejected before any write
// is attempted. Handlers should translate this into an HTTP 400
// response.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as attempting to reserve a table that
// already has an active session. Handlers should translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a referenced entity or session does
// not exist or is no longer active. Handlers should translate this
// into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrAuth is returned when credentials are missing or invalid.
// Handlers should translate this into an HTTP 401 response.
var ErrAuth = errors.New("authentication failed")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrTransient is returned for backend or network failures that are
// potentially retryable by the caller. No layer in this service
// retries automatically; retries without idempotency keys could
// double-create sessions. Handlers should translate this into an
// HTTP 503 response.
var ErrTransient = errors.New("transient backend error")

// AsTransient wraps an unclassified backend error as ErrTransient
// while preserving the underlying message. Errors that already carry
// one of the sentinel values above are returned unchanged so typed
// failures are never masked. Context deadline and cancellation errors
// fall through to the ErrTransient wrap: an expired operation timeout
// means the backend stalled, not that the data was wrong.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrAuth, ErrForbidden, ErrTransient} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
