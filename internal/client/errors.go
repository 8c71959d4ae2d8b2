package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted marks a request cut short by its context. Abort is a normal
// outcome for the editor (a new edit superseded the request), so callers
// check for it before treating a failure as an error.
var ErrAborted = errors.New("request aborted")

// NetworkError wraps a transport-level failure: the request never got a
// response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a 5xx response from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// ValidationError is a 4xx response, or a request rejected client-side
// before it was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// wrapTransport classifies a transport failure: context cancellation maps
// to ErrAborted, everything else to NetworkError.
func wrapTransport(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return &NetworkError{Err: err}
}
