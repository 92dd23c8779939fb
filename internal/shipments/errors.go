package shipments

import (
	"errors"
	"net/http"
)

// Domain errors for shipment operations.
var (
	ErrNotFound      = errors.New("shipment not found")
	ErrDuplicate     = errors.New("shipment already exists")
	ErrMissingField  = errors.New("reference is required")
	ErrUnknownState  = errors.New("unknown workflow state")
	ErrStateConflict = errors.New("shipment state changed concurrently")
)

// MapHTTPStatus maps shipment domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrUnknownState):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
