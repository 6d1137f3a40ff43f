// Package executor models the cooperative single-threaded task runtime the
// relay's state lives on.
//
// Every callback the underlying ICE/DTLS/SCTP stack delivers, and every
// datagram read off the local UDP socket, is handed to an Executor before it
// touches any relay state. This is the Go realization of the fan-in
// boundary: whichever goroutine a callback arrives on, it is folded onto the
// executor's single logical thread before doing anything else, so the rest
// of the relay never needs a lock.
package executor

import "time"

// Executor runs functions one at a time, in the order they were submitted,
// on a single logical thread.
type Executor interface {
	// Go submits fn to run on the executor's logical thread. Go itself never
	// blocks. A real executor never runs fn on the calling goroutine; Fake,
	// the deterministic test double, runs it synchronously instead.
	Go(fn func())

	// AfterFunc schedules fn to run on the executor's thread once d has
	// elapsed. The returned Timer can cancel the callback before it fires.
	AfterFunc(d time.Duration, fn func()) Timer

	// Close stops the executor. Functions already queued via Go may or may
	// not run; no function submitted after Close returns will run. Close
	// blocks until any function currently executing returns.
	Close()
}

// Timer cancels a callback scheduled by Executor.AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing, if it hasn't already fired or
	// been stopped. It returns true if the stop prevented the callback from
	// running.
	Stop() bool
}
