package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a remote path or identifier that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrParentNotFound indicates a write operation whose destination
	// directory does not resolve.
	ErrParentNotFound = errors.New("parent directory not found")
)

// TransportError wraps a failure at the transport layer: a nonzero exit
// status from the CLI, malformed structured output, or an HTTP-level error
// from the WebDAV endpoint.
type TransportError struct {
	Op     string // list, mkdir, upload, delete, download
	Target string // remote path or identifier
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
