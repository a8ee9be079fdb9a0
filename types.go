package uthreads

import "github.com/Swind/go-uthreads/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the uthreads package for most use cases.

// Scheduler multiplexes user-level threads onto one flow of control
type Scheduler = core.Scheduler

// SchedulerConfig holds scheduler settings and handlers
type SchedulerConfig = core.SchedulerConfig

// EntryFunc is the body of a thread
type EntryFunc = core.EntryFunc

// ThreadInfo is a snapshot of a thread control block
type ThreadInfo = core.ThreadInfo

// SchedulerStats is a snapshot of the scheduler state
type SchedulerStats = core.SchedulerStats

// SignalSet is a set of blocked signals
type SignalSet = core.SignalSet

// MaskHow selects how SigProcMask changes the mask
type MaskHow = core.MaskHow

// UsageError reports an illegal call
type UsageError = core.UsageError

// Thread states and mask operations
const (
	StatusReady   = core.StatusReady
	StatusRunning = core.StatusRunning
	StatusBlocked = core.StatusBlocked

	SigBlock   = core.SigBlock
	SigUnblock = core.SigUnblock
	SigSetMask = core.SigSetMask

	MainThreadID  = core.MainThreadID
	PreemptSignal = core.PreemptSignal
)

// Convenience functions
var (
	NewSignalSet           = core.NewSignalSet
	DefaultSchedulerConfig = core.DefaultSchedulerConfig
	LoadConfigFile         = core.LoadConfigFile
)

// NewScheduler creates a standalone scheduler; the caller becomes its main thread.
// This is re-exported for advanced users who want more than the default scheduler.
func NewScheduler(quantumUsecs int) (*Scheduler, error) {
	return core.NewScheduler(quantumUsecs)
}
