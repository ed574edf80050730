package httpx

import (
	"net/http"

	"github.com/sundayezeilo/tinylink/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Client-input problems are 4xx, store faults are 503 so callers know to retry,
// everything else is 500.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to the generic error code used in JSON responses.
// Handlers that can name the condition more precisely use their own codes.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "conflict"
	case errx.Invalid:
		return "invalid_input"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}
