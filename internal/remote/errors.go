package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/walacakra/internal/settings"
)

var (
	// ErrEmptyPath indicates a binary fetch was requested without a path.
	ErrEmptyPath = errors.New("resource path is empty")
	// ErrEmptyHash indicates a hash-addressed call was made without a hash.
	ErrEmptyHash = errors.New("document hash is empty")
	// ErrInvalidPage indicates a history page below 1 was requested.
	ErrInvalidPage = errors.New("history page must be at least 1")
	// ErrDecisionFailed wraps every failure of an assessment PATCH.
	ErrDecisionFailed = errors.New("decision submission failed")
	// ErrInvalidResponse indicates the API answered with a body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from processing api")
)

// StatusError is returned when the processing API answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %s", e.URL, e.Status)
	}
	return fmt.Sprintf("%s returned %s: %s", e.URL, e.Status, e.Body)
}

// MapHTTPStatus maps client errors to HTTP status codes for handlers
// relaying remote failures.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyPath) || errors.Is(err, ErrEmptyHash) || errors.Is(err, ErrInvalidPage) {
		return http.StatusBadRequest
	}
	if errors.Is(err, settings.ErrNoEndpoint) || errors.Is(err, settings.ErrInvalidEndpoint) {
		return settings.MapHTTPStatus(err)
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
