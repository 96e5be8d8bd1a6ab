package classifications

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrNotFound          = errors.New("classification not found")
	ErrDuplicate         = errors.New("classification already exists for this product and method")
	ErrReferenceNotFound = errors.New("product or puc not found")
	ErrInvalidMethod     = errors.New("invalid classification method")
	ErrInvalidBulkMethod = errors.New("bulk assignment requires method MB or BA")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	ErrNoProducts        = errors.New("at least one product is required")
)

// MapHTTPStatus maps classification domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidBulkMethod),
		errors.Is(err, ErrInvalidConfidence),
		errors.Is(err, ErrNoProducts):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
