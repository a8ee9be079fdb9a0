//go:build linux

package core

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// intervalTimer arms ITIMER_VIRTUAL and turns SIGVTALRM deliveries into
// fire calls. The interval timer is process wide, so only one scheduler per
// process may use it.
type intervalTimer struct {
	mu      sync.Mutex
	quantum time.Duration
	sigs    chan os.Signal
	stop    chan struct{}
	done    chan struct{}
}

func newIntervalTimer() (Timer, error) {
	return &intervalTimer{}, nil
}

func (t *intervalTimer) Start(quantum time.Duration, fire func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sigs != nil {
		return fmt.Errorf("interval timer already started")
	}
	if quantum <= 0 {
		return ErrInvalidQuantum
	}

	t.quantum = quantum
	t.sigs = make(chan os.Signal, 1)
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	signal.Notify(t.sigs, unix.SIGVTALRM)

	if err := t.armLocked(quantum); err != nil {
		signal.Stop(t.sigs)
		t.sigs = nil
		return err
	}

	go t.loop(t.sigs, t.stop, t.done, fire)
	return nil
}

func (t *intervalTimer) loop(sigs <-chan os.Signal, stop, done chan struct{}, fire func()) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-sigs:
			fire()
		}
	}
}

func (t *intervalTimer) armLocked(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if _, err := unix.Setitimer(unix.ItimerVirtual, unix.Itimerval{Interval: tv, Value: tv}); err != nil {
		return fmt.Errorf("setitimer: %w", err)
	}
	return nil
}

func (t *intervalTimer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sigs == nil {
		return fmt.Errorf("interval timer not started")
	}
	return t.armLocked(t.quantum)
}

func (t *intervalTimer) Stop() {
	t.mu.Lock()
	if t.sigs == nil {
		t.mu.Unlock()
		return
	}
	_ = t.armLocked(0)
	signal.Stop(t.sigs)
	stop, done := t.stop, t.done
	t.sigs, t.stop, t.done = nil, nil, nil
	t.mu.Unlock()

	close(stop)
	<-done
}
