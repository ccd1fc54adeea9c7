package settings

import (
	"errors"
	"net/http"
)

var (
	// ErrNoEndpoint indicates the reviewer has not configured an API endpoint.
	ErrNoEndpoint = errors.New("api endpoint not configured")
	// ErrInvalidEndpoint indicates the configured endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("api endpoint must be an absolute http or https url")
)

// MapHTTPStatus maps settings errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoEndpoint) || errors.Is(err, ErrInvalidEndpoint) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
