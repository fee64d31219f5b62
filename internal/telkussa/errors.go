package telkussa

import (
	"errors"
	"fmt"
)

// ErrInvalidDate is returned when a date is not in YYYYMMDD form.
var ErrInvalidDate = errors.New("date must be in YYYYMMDD form")

// TransportError wraps network failures and timeouts.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is returned for any non-200 response.
type RemoteError struct {
	URL        string
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// DecodeError is returned when the body is not the expected JSON array.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
