package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/factotum/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicate     = errors.New("document already exists")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidFile   = errors.New("invalid file")
	ErrTitleRequired = errors.New("title is required")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
// Anything else is classified by the blob storage layer.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrTitleRequired) {
		return http.StatusBadRequest
	}
	return storage.MapHTTPStatus(err)
}
