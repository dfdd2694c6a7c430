package drtv

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedURL     = errors.New("malformed item url")
	ErrUnrecognizedKind = errors.New("unrecognized url kind")
	ErrUnverifiedURL    = errors.New("url does not belong to the service")
	ErrUnexpectedShape  = errors.New("unexpected response shape")
	ErrTooManyRequests  = errors.New("too many requests")
)

// URLError reports which input URL failed to parse.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() error {
	return e.Err
}

// ShapeError is returned when a response body lacks the expected JSON path.
type ShapeError struct {
	Path string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape: missing or invalid %q", e.Path)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrUnexpectedShape
}

// StatusError is a non-success response that the caller does not recover from.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrTooManyRequests && e.StatusCode == http.StatusTooManyRequests
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
