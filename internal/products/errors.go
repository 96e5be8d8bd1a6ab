package products

import (
	"errors"
	"net/http"
)

// Domain errors for product operations.
var (
	ErrNotFound         = errors.New("product not found")
	ErrDuplicate        = errors.New("product with this upc already exists")
	ErrTitleRequired    = errors.New("title is required")
	ErrUPCRequired      = errors.New("upc is required")
	ErrDocumentNotFound = errors.New("document not found")
)

// MapHTTPStatus maps product domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrUPCRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
