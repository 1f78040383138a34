package hooks

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingConfiguration is returned when no hook type is configured
	ErrMissingConfiguration = errors.New("build hook is not configured")
	// ErrTriggerDisabled is returned when the resolved trigger URL is empty
	ErrTriggerDisabled = errors.New("build hook trigger is disabled")
	// ErrMalformedResponse is returned when a provider response lacks an
	// expected field
	ErrMalformedResponse = errors.New("malformed provider response")
)

// HTTPError is a non-2xx provider response
type HTTPError struct {
	Method     string
	URL        string // token redacted
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
