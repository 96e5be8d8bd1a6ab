package rules

import (
	"errors"
	"net/http"
)

// Domain errors for rule operations.
var (
	ErrNotFound       = errors.New("rule not found")
	ErrDuplicate      = errors.New("rule name already exists")
	ErrNameRequired   = errors.New("rule name is required")
	ErrInvalidField   = errors.New("field must be title, brand_name, or manufacturer")
	ErrInvalidPattern = errors.New("invalid rule pattern")
	ErrPUCNotFound    = errors.New("puc not found")
	ErrInvalidFile    = errors.New("invalid rule file")
)

// MapHTTPStatus maps rule domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPUCNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidPattern) ||
		errors.Is(err, ErrInvalidFile) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
