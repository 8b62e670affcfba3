package nhlapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed NHL API call.
type Error struct {
	Op         string
	StatusCode int   // zero for transport-level failures
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nhl api: %s returned status %d", e.Op, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("nhl api: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("nhl api: %s failed", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a remote failure worth retrying on a
// later run: network trouble, throttling, or an upstream 5xx.
func IsTransient(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 0 {
		return true
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return apiErr.StatusCode >= 500
}
