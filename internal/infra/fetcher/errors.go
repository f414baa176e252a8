package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL indicates a URL that cannot be fetched.
	ErrInvalidURL = errors.New("invalid url")

	// ErrPrivateIP indicates a URL that resolves to a private, loopback or link-local address.
	ErrPrivateIP = errors.New("url resolves to private address")

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request did not finish within Config.Timeout.
	ErrTimeout = errors.New("fetch timed out")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}
