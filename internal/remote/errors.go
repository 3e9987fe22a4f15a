package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// DispatchError reports a failed call to the remote server: transport failure, timeout or
// a non-2xx status. Status is 0 when no response was received.
type DispatchError struct {
	Method string
	URI    string
	Status int
	Body   string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch %s %s: %v", e.Method, e.URI, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("dispatch %s %s: remote returned status %d", e.Method, e.URI, e.Status)
	}
	return fmt.Sprintf("dispatch %s %s: remote returned status %d: %s", e.Method, e.URI, e.Status, e.Body)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Timeout reports whether the call was abandoned because a deadline expired.
func (e *DispatchError) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
