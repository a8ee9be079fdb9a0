//go:build unix

package core

import (
	"errors"
	"sync"
)

// errKilled is the park result of a thread that was terminated while it was
// not running.
var errKilled = errors.New("thread killed while suspended")

// execContext is the saved execution context of a thread.
//
// The goroutine behind a thread is its execution stack; the context holds
// what is needed to stop and restart it: the blocked-signal mask in effect
// at the last suspension and the permit that lets the goroutine run again.
// The permit has one slot, so a grant issued before the goroutine reaches
// park is not lost.
type execContext struct {
	mask SignalSet

	permit chan struct{}

	killOnce sync.Once
	killed   chan struct{}
}

func newExecContext() *execContext {
	return &execContext{
		permit: make(chan struct{}, 1),
		killed: make(chan struct{}),
	}
}

// save snapshots the live signal mask of the outgoing thread.
func (c *execContext) save(mask SignalSet) {
	c.mask = mask
}

// restore grants the permit and returns the mask to reinstate.
func (c *execContext) restore() SignalSet {
	select {
	case c.permit <- struct{}{}:
	default:
		// A grant is already outstanding; the goroutine has not consumed it yet.
	}
	return c.mask
}

// park blocks the calling goroutine until the thread is restored (nil) or
// killed (errKilled). Both a suspension and its later resumption pass through
// here; the result tells the two apart.
func (c *execContext) park() error {
	select {
	case <-c.permit:
		return nil
	case <-c.killed:
		return errKilled
	}
}

// kill wakes a parked goroutine so that it unwinds. Safe to call repeatedly.
func (c *execContext) kill() {
	c.killOnce.Do(func() { close(c.killed) })
}
