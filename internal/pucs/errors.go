package pucs

import (
	"errors"
	"net/http"
)

// Domain errors for PUC operations.
var (
	ErrNotFound         = errors.New("puc not found")
	ErrDuplicate        = errors.New("puc with this gen_cat, prod_fam and prod_type already exists")
	ErrInvalidHierarchy = errors.New("prod_type requires prod_fam")
	ErrGenCatRequired   = errors.New("gen_cat is required")
	ErrInvalidKind      = errors.New("invalid puc kind")
	ErrInUse            = errors.New("puc is referenced by product classifications")
)

// MapHTTPStatus maps PUC domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidHierarchy),
		errors.Is(err, ErrGenCatRequired),
		errors.Is(err, ErrInvalidKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
