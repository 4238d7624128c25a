package apikit

import (
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	// ErrMissingEndpoint is returned by resource operations when the resource
	// was built without an endpoint path. It signals a programming error.
	ErrMissingEndpoint      = errors.New("endpoint URL is required")
	ErrResourceExists       = errors.New("resource already attached")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrResourceType         = errors.New("resource has a different type")
	ErrResourceNameRequired = errors.New("resource name is required")
	ErrInvalidParams        = errors.New("unsupported query parameters")
	ErrInterceptorRejected  = errors.New("interceptor rejected the call")
)

// TransportError is any failure surfaced while executing a call: a network
// error, a non-success status, or a rejection raised by a request
// interceptor. Response failure handlers see all of them.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	// Response is set when the server answered.
	Response *Response
	// Err is the underlying network error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	transportErr := &TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}

	return 0
}

// IsStatus checks if err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
