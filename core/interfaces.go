//go:build unix

package core

import (
	"fmt"
	"os"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling thread panics
// =============================================================================

// PanicHandler is called when a thread's entry function panics. The thread
// is terminated after the handler returns.
type PanicHandler interface {
	// HandlePanic is called on the panicking thread before it terminates.
	//
	// Parameters:
	// - threadID: The id of the panicking thread
	// - panicInfo: The panic value recovered from the entry function
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(threadID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stderr.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stderr.
func (h *DefaultPanicHandler) HandlePanic(threadID int, panicInfo any, stackTrace []byte) {
	fmt.Fprintf(os.Stderr, "[Thread %d] Panic: %v\nStack trace:\n%s", threadID, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// SwitchReason says why the running thread gave up the processor.
type SwitchReason int

const (
	// SwitchPreempted: the quantum expired and another thread was ready.
	SwitchPreempted SwitchReason = iota
	// SwitchBlocked: the running thread blocked itself.
	SwitchBlocked
	// SwitchSynced: the running thread waits for another thread to terminate.
	SwitchSynced
	// SwitchTerminated: the running thread terminated.
	SwitchTerminated
	// SwitchRenewed: the quantum expired with nothing else ready; the running
	// thread starts a new quantum without switching.
	SwitchRenewed
)

func (r SwitchReason) String() string {
	switch r {
	case SwitchPreempted:
		return "preempted"
	case SwitchBlocked:
		return "blocked"
	case SwitchSynced:
		return "synced"
	case SwitchTerminated:
		return "terminated"
	case SwitchRenewed:
		return "renewed"
	default:
		return "unknown"
	}
}

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called inside the scheduler's critical section, and
// RecordQuantumExpired also from the timer goroutine, so they must be
// non-blocking, fast and safe for concurrent use.
type Metrics interface {
	// RecordSwitch records the start of a new quantum and why it started.
	RecordSwitch(reason SwitchReason)

	// RecordQuantumExpired records a timer expiry, delivered or not.
	RecordQuantumExpired()

	// RecordThreadSpawned records a successful spawn.
	RecordThreadSpawned()

	// RecordThreadTerminated records the release of a thread control block.
	RecordThreadTerminated()

	// RecordUsageError records a call rejected with a usage error.
	//
	// Parameters:
	// - op: The public operation that failed (e.g., "block", "sync")
	RecordUsageError(op string)

	// RecordReadyQueueDepth records the ready queue length after a change.
	RecordReadyQueueDepth(depth int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordSwitch(reason SwitchReason) {}
func (m *NilMetrics) RecordQuantumExpired()            {}
func (m *NilMetrics) RecordThreadSpawned()             {}
func (m *NilMetrics) RecordThreadTerminated()          {}
func (m *NilMetrics) RecordUsageError(op string)       {}
func (m *NilMetrics) RecordReadyQueueDepth(depth int)  {}

// =============================================================================
// SchedulerConfig: Configuration for Scheduler
// =============================================================================

const (
	// DefaultMaxThreads bounds the number of live threads, main included.
	DefaultMaxThreads = 100

	// DefaultStackSize is the size of each thread's stack region in bytes.
	DefaultStackSize = 4096

	defaultHistoryCapacity = 64
)

// SchedulerConfig holds configuration options for Scheduler.
// Handlers are optional; defaults are used when they are nil.
type SchedulerConfig struct {
	// QuantumUsecs is the quantum length in microseconds. Must be > 0.
	QuantumUsecs int

	// MaxThreads bounds the number of concurrently live threads.
	MaxThreads int

	// StackSize is the size in bytes of each thread's stack region.
	StackSize int

	// TimerKind selects the preemption timer when Timer is nil.
	TimerKind TimerKind

	// Timer overrides TimerKind with a ready-made timer.
	Timer Timer

	// HistoryCapacity is the number of switch records kept.
	HistoryCapacity int

	// Logger receives library diagnostics. Defaults to DefaultLogger.
	Logger Logger

	// Metrics is called to record scheduler metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a thread panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// ExitFunc ends the process when the main thread terminates (code 0) or
	// a system error occurs (code 1). Defaults to os.Exit. If it returns, the
	// scheduler stays closed and the terminating call returns.
	ExitFunc func(code int)
}

// DefaultSchedulerConfig returns a config with default handlers and the
// given quantum.
func DefaultSchedulerConfig(quantumUsecs int) *SchedulerConfig {
	return &SchedulerConfig{
		QuantumUsecs:    quantumUsecs,
		MaxThreads:      DefaultMaxThreads,
		StackSize:       DefaultStackSize,
		TimerKind:       TimerTicker,
		HistoryCapacity: defaultHistoryCapacity,
		Logger:          NewDefaultLogger(),
		Metrics:         &NilMetrics{},
		PanicHandler:    &DefaultPanicHandler{},
		ExitFunc:        os.Exit,
	}
}

// Quantum returns the quantum as a duration.
func (c *SchedulerConfig) Quantum() time.Duration {
	return time.Duration(c.QuantumUsecs) * time.Microsecond
}

// Validate checks the numeric settings. A non-positive quantum is reported
// as ErrInvalidQuantum; the rest wrap ErrInvalidConfig.
func (c *SchedulerConfig) Validate() error {
	if c.QuantumUsecs <= 0 {
		return ErrInvalidQuantum
	}
	if c.MaxThreads < 1 {
		return fmt.Errorf("%w: max threads must be at least 1, got %d", ErrInvalidConfig, c.MaxThreads)
	}
	if c.StackSize < 1 {
		return fmt.Errorf("%w: stack size must be positive, got %d", ErrInvalidConfig, c.StackSize)
	}
	return nil
}

// withDefaults returns a copy with every unset field filled in.
func (c *SchedulerConfig) withDefaults() SchedulerConfig {
	out := *c
	if out.MaxThreads == 0 {
		out.MaxThreads = DefaultMaxThreads
	}
	if out.StackSize == 0 {
		out.StackSize = DefaultStackSize
	}
	if out.HistoryCapacity <= 0 {
		out.HistoryCapacity = defaultHistoryCapacity
	}
	if out.Logger == nil {
		out.Logger = NewDefaultLogger()
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{}
	}
	if out.ExitFunc == nil {
		out.ExitFunc = os.Exit
	}
	return out
}
