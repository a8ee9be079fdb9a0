//go:build unix

package core

import (
	"errors"
	"fmt"
)

// Usage errors. They are returned wrapped in a *UsageError, so match them with errors.Is.
var (
	ErrInvalidQuantum = errors.New("quantum must be strictly positive")
	ErrNoSuchThread   = errors.New("no thread with this id")
	ErrMainThread     = errors.New("operation not permitted on the main thread")
	ErrSelfSync       = errors.New("thread cannot sync to itself")
	ErrTooManyThreads = errors.New("thread limit reached")
	ErrNilEntry       = errors.New("thread entry function is nil")
)

var (
	// ErrClosed is returned once the scheduler has terminated, either because
	// the main thread was terminated or because of a fatal system error.
	ErrClosed = errors.New("scheduler terminated")

	// ErrInvalidConfig is wrapped by configuration validation failures.
	ErrInvalidConfig = errors.New("invalid scheduler config")

	// ErrTimerUnsupported is returned when the requested timer kind does not
	// exist on this platform.
	ErrTimerUnsupported = errors.New("timer kind not supported on this platform")
)

// UsageError reports an illegal call into the library. The scheduler state
// is left untouched.
type UsageError struct {
	Op  string
	ID  int
	Err error
}

func (e *UsageError) Error() string {
	if e.ID < 0 {
		return fmt.Sprintf("thread library error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("thread library error: %s %d: %v", e.Op, e.ID, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

// SystemError reports a failure of an underlying primitive (timer, signals).
// It is fatal for the scheduler.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error: %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }
