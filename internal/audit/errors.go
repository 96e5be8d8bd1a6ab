package audit

import (
	"errors"
	"net/http"
)

// Domain errors for audit operations.
var (
	ErrNotFound          = errors.New("audit entry not found")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	ErrNoFields          = errors.New("audit declaration has no fields")
	ErrInvalidAction     = errors.New("action must be I, U, or D")
)

// MapHTTPStatus maps audit domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidAction) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
