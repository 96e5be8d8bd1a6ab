package qa

import (
	"errors"
	"net/http"
)

// Domain errors for QA operations.
var (
	ErrScriptNotFound    = errors.New("extraction script not found")
	ErrTextNotFound      = errors.New("extracted text not found")
	ErrGroupNotFound     = errors.New("qa group not found")
	ErrReferenceNotFound = errors.New("document or extraction script not found")
	ErrDuplicate         = errors.New("document already has extracted text")
	ErrTitleRequired     = errors.New("script title is required")
	ErrNotesRequired     = errors.New("notes are required when the text was edited")
	ErrNothingToReview   = errors.New("no unreviewed texts to review")
	ErrNotInGroup        = errors.New("extracted text is not in an open qa group")
	ErrIncomplete        = errors.New("qa group has unapproved texts")
	ErrAlreadyComplete   = errors.New("extraction script has already completed qa")
)

// MapHTTPStatus maps QA domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrScriptNotFound),
		errors.Is(err, ErrTextNotFound),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrNothingToReview),
		errors.Is(err, ErrNotInGroup),
		errors.Is(err, ErrIncomplete),
		errors.Is(err, ErrAlreadyComplete):
		return http.StatusConflict
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrNotesRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
