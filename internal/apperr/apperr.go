// Package apperr defines the error kinds shared by every service layer.
//
// Services classify failures by wrapping one of these sentinels with
// fmt.Errorf("...: %w", kind). The kind survives wrapping, so callers and
// the HTTP boundary can classify any service error with errors.Is without
// inspecting messages.
package apperr

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned when a requested entity does not exist or is
// invisible to the caller's organization.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller is authenticated but not
// allowed to act on the target.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicate is returned when a write loses to a uniqueness rule. The
// database constraint is the arbiter; services translate storage.ErrConflict
// into this kind rather than pre-checking.
var ErrDuplicate = errors.New("duplicate")

// ErrBadRequest is returned when the input itself is invalid.
var ErrBadRequest = errors.New("bad request")

// ErrUnauthorized is returned when the caller's credentials are missing,
// expired, or wrong.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPStatus maps an error's kind to a response status code. Unclassified
// errors are internal server errors.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
