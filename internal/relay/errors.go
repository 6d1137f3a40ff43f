package relay

import "errors"

var (
	// ErrClosed reports that a relay has been closed. No Relay method returns
	// it: calls made after Close do not report an error.
	ErrClosed = errors.New("relay: closed")
	// ErrExecutorRequired is returned by New when no executor is supplied.
	ErrExecutorRequired = errors.New("relay: executor is required")
)
