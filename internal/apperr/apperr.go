package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the service layer. Handlers map these to HTTP
// statuses; everything else is treated as an internal error.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCapital = errors.New("insufficient capital")
	ErrInvalidState        = errors.New("invalid state")
	ErrUnauthorized        = errors.New("unauthorized")
)

// E wraps kind with a formatted message so callers can both errors.Is on
// the kind and read the context (entity id, org id, amounts).
func E(kind error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}

// Status returns the HTTP status for an error kind.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientCapital):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
