//go:build unix

package core

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// TestTickerTimer_Fires verifies the ticker calls fire every quantum until stopped
func TestTickerTimer_Fires(t *testing.T) {
	// Arrange
	timer := newTickerTimer()
	var fired atomic.Int32

	// Act
	if err := timer.Start(time.Millisecond, func() { fired.Add(1) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	timer.Stop()
	after := fired.Load()
	time.Sleep(10 * time.Millisecond)

	// Assert
	if after < 3 {
		t.Fatalf("fired %d times, want at least 3", after)
	}
	if fired.Load() != after {
		t.Errorf("fired after Stop: %d -> %d", after, fired.Load())
	}
}

func TestTickerTimer_Lifecycle(t *testing.T) {
	timer := newTickerTimer()
	if err := timer.Reset(); err == nil {
		t.Errorf("Reset before Start = nil, want error")
	}
	if err := timer.Start(0, func() {}); !errors.Is(err, ErrInvalidQuantum) {
		t.Errorf("Start(0) = %v, want ErrInvalidQuantum", err)
	}
	if err := timer.Start(time.Hour, func() {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := timer.Start(time.Hour, func() {}); err == nil {
		t.Errorf("second Start = nil, want error")
	}
	if err := timer.Reset(); err != nil {
		t.Errorf("Reset: %v", err)
	}
	timer.Stop()
	timer.Stop()
}

// TestManualTimer verifies Fire only reaches the callback while started
func TestManualTimer(t *testing.T) {
	m := NewManualTimer()
	fired := 0
	m.Fire()

	_ = m.Start(5*time.Millisecond, func() { fired++ })
	m.Fire()
	_ = m.Reset()
	_ = m.Reset()
	m.Stop()
	m.Fire()

	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if m.Resets() != 2 {
		t.Errorf("Resets() = %d, want 2", m.Resets())
	}
	if m.Quantum() != 5*time.Millisecond {
		t.Errorf("Quantum() = %v, want 5ms", m.Quantum())
	}
	if !m.Stopped() {
		t.Errorf("Stopped() = false")
	}
}

func TestNewTimer_Kinds(t *testing.T) {
	for _, kind := range []TimerKind{"", TimerTicker, TimerManual} {
		if _, err := NewTimer(kind); err != nil {
			t.Errorf("NewTimer(%q): %v", kind, err)
		}
	}
	if _, err := NewTimer("sundial"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewTimer(sundial) = %v, want ErrInvalidConfig", err)
	}
}
