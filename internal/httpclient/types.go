package httpclient

import (
	"fmt"
	"net/http"
)

// HTTPError is returned when an endpoint answers with a non-200 status.
type HTTPError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// URL is the requested endpoint
	URL string

	// Status is the status line of the response
	Status string
}

// Error formats the failed request for log output
func (e *HTTPError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Status)
}

// Retryable reports whether the status is transient (429 or any 5xx), so
// the request is worth another attempt after backing off.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
