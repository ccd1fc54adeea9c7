package review

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/remote"
)

var (
	ErrNoFile         = errors.New("no processed file found")
	ErrMissingData    = errors.New("data for this file is corrupted or missing")
	ErrMissingHash    = errors.New("document hash is missing")
	ErrTerminal       = errors.New("document already has a final assessment")
	ErrDeclined       = errors.New("action was not confirmed")
	ErrInFlight       = errors.New("a decision is already being submitted")
	ErrDecisionFailed = errors.New("decision could not be submitted")
	ErrInvalidIndex   = errors.New("file index out of range")
	ErrInvalidTab     = errors.New("unknown tab")
	ErrInvalidAction  = errors.New("unknown decision action")
	ErrInvalidField   = errors.New("unknown field")
	ErrInvalidPage    = errors.New("page index out of range")
	ErrPageOutOfRange = errors.New("history page out of range")
)

// MapHTTPStatus maps review errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrDecisionFailed):
		return remote.MapHTTPStatus(err)
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrMissingData):
		return http.StatusNotFound
	case errors.Is(err, ErrTerminal), errors.Is(err, ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrMissingHash):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDeclined),
		errors.Is(err, ErrInvalidIndex),
		errors.Is(err, ErrInvalidTab),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidPage),
		errors.Is(err, ErrPageOutOfRange):
		return http.StatusBadRequest
	}
	return remote.MapHTTPStatus(err)
}
