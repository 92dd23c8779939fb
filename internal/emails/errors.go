package emails

import (
	"errors"
	"net/http"
)

// Domain errors for email operations.
var (
	ErrNotFound     = errors.New("email not found")
	ErrDuplicate    = errors.New("email already exists")
	ErrMissingField = errors.New("subject and sender_email are required")
	ErrFileTooLarge = errors.New("attachment exceeds upload limit")
	ErrInvalidFile  = errors.New("invalid attachment upload")
)

// MapHTTPStatus maps email domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
