package gateway

import (
	"fmt"
	"strings"
)

// NetworkError reports a request that could not reach the endpoint or came
// back with a failure status. Body holds the raw response text when there was one.
type NetworkError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Transport reports whether the failure happened before any response arrived.
func (e *NetworkError) Transport() bool {
	return e.Status == 0
}
