package auth

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrHandshakeFailed = errors.New("anonymous session handshake failed")
	ErrRefreshRejected = errors.New("token refresh was rejected")
	ErrUnauthorized    = errors.New("unauthorized")
)

// HandshakeError carries either the unexpected status code of the handshake
// response or the cause that prevented reading a token from it.
type HandshakeError struct {
	StatusCode int
	Cause      error
}

func (e *HandshakeError) Error() string {
	switch {
	case nil != e.Cause:
		return fmt.Sprintf("%v: %v", ErrHandshakeFailed, e.Cause)
	default:
		return fmt.Sprintf("%v: unexpected status code: %d %s", ErrHandshakeFailed, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshakeFailed
}

func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

type RefreshRejectedError struct {
	StatusCode int
	Body       string
}

func (e *RefreshRejectedError) Error() string {
	return fmt.Sprintf("%v: unexpected status code: %d %s", ErrRefreshRejected, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *RefreshRejectedError) Is(target error) bool {
	return target == ErrRefreshRejected
}
