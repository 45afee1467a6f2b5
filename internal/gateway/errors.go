package gateway

import (
	"errors"
	"fmt"
	"time"
)

// NoResponseText is displayed when the backend answers without any text.
const NoResponseText = "No response from AI model"

// ErrUnsupported is returned for endpoints the profile does not expose.
var ErrUnsupported = errors.New("endpoint not supported by this backend")

// ConnectionError is a transport failure: DNS, refused connection or timeout.
type ConnectionError struct {
	Err     error
	timeout time.Duration
}

func (e *ConnectionError) Error() string {
	if e.timeout > 0 {
		return fmt.Sprintf("backend did not respond within %s", e.timeout)
	}
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was the bounded wait expiring.
func (e *ConnectionError) Timeout() bool {
	return e.timeout > 0
}

// BackendError is a non-200 HTTP answer.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Detail)
}

// EmptyResponseError is a 200 answer whose reply field is missing or blank.
type EmptyResponseError struct {
	ModelUsed string
}

func (e *EmptyResponseError) Error() string {
	return "empty response from backend"
}

// Display turns any error returned by the gateway into text fit for the
// transcript.
func Display(err error) string {
	var (
		connErr    *ConnectionError
		backendErr *BackendError
		emptyErr   *EmptyResponseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &emptyErr):
		return NoResponseText
	case errors.As(err, &backendErr):
		return "Error: " + backendErr.Error()
	case errors.As(err, &connErr):
		return "Connection error: " + connErr.Error()
	default:
		return "Error: " + err.Error()
	}
}
