//go:build unix

package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Timer delivers quantum expiries to the scheduler.
//
// fire is called from the timer's own goroutine (or signal loop) every
// quantum; it must not block. Reset restarts the current quantum from zero
// and is called on every context switch.
type Timer interface {
	Start(quantum time.Duration, fire func()) error
	Reset() error
	Stop()
}

// TimerKind names a Timer implementation in configuration.
type TimerKind string

const (
	// TimerTicker uses a time.Ticker. Works everywhere and supports several
	// schedulers in one process.
	TimerTicker TimerKind = "ticker"

	// TimerInterval uses setitimer(ITIMER_VIRTUAL) and SIGVTALRM, so a quantum
	// is measured in consumed CPU time. Linux only; one per process.
	TimerInterval TimerKind = "itimer"

	// TimerManual never fires on its own; see ManualTimer.
	TimerManual TimerKind = "manual"
)

// Validate reports an unknown kind. The empty kind means TimerTicker.
func (k TimerKind) Validate() error {
	switch k {
	case TimerTicker, TimerInterval, TimerManual, "":
		return nil
	default:
		return fmt.Errorf("%w: unknown timer %q", ErrInvalidConfig, string(k))
	}
}

// NewTimer builds the Timer for kind.
func NewTimer(kind TimerKind) (Timer, error) {
	switch kind {
	case TimerTicker, "":
		return newTickerTimer(), nil
	case TimerInterval:
		return newIntervalTimer()
	case TimerManual:
		return NewManualTimer(), nil
	default:
		return nil, kind.Validate()
	}
}

// =============================================================================
// tickerTimer
// =============================================================================

type tickerTimer struct {
	mu      sync.Mutex
	quantum time.Duration
	ticker  *time.Ticker
	cancel  context.CancelFunc
	done    chan struct{}
}

func newTickerTimer() *tickerTimer {
	return &tickerTimer{}
}

func (t *tickerTimer) Start(quantum time.Duration, fire func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker != nil {
		return fmt.Errorf("ticker timer already started")
	}
	if quantum <= 0 {
		return ErrInvalidQuantum
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.quantum = quantum
	t.ticker = time.NewTicker(quantum)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.loop(ctx, t.ticker, fire, t.done)
	return nil
}

func (t *tickerTimer) loop(ctx context.Context, ticker *time.Ticker, fire func(), done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire()
		}
	}
}

func (t *tickerTimer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker == nil {
		return fmt.Errorf("ticker timer not started")
	}
	t.ticker.Reset(t.quantum)
	return nil
}

func (t *tickerTimer) Stop() {
	t.mu.Lock()
	ticker, cancel, done := t.ticker, t.cancel, t.done
	t.ticker, t.cancel, t.done = nil, nil, nil
	t.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	cancel()
	<-done
}

// =============================================================================
// ManualTimer
// =============================================================================

// ManualTimer fires only when Fire is called. Tests use it to make
// preemption deterministic.
type ManualTimer struct {
	mu      sync.Mutex
	fire    func()
	quantum time.Duration
	resets  int
	stopped bool
}

// NewManualTimer creates a ManualTimer.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

func (m *ManualTimer) Start(quantum time.Duration, fire func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantum = quantum
	m.fire = fire
	m.stopped = false
	return nil
}

func (m *ManualTimer) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return nil
}

func (m *ManualTimer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Fire simulates the expiry of the current quantum.
func (m *ManualTimer) Fire() {
	m.mu.Lock()
	fire, stopped := m.fire, m.stopped
	m.mu.Unlock()

	if fire != nil && !stopped {
		fire()
	}
}

// Resets returns how many times the quantum was restarted.
func (m *ManualTimer) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Quantum returns the quantum passed to Start.
func (m *ManualTimer) Quantum() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quantum
}

// Stopped reports whether Stop was called after the last Start.
func (m *ManualTimer) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
