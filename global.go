package uthreads

import (
	"errors"
	"sync"

	"github.com/Swind/go-uthreads/core"
)

// ErrAlreadyInitialized is returned by Init while the default scheduler is live.
var ErrAlreadyInitialized = errors.New("uthreads already initialized")

// =============================================================================
// Default Scheduler (Singleton)
// =============================================================================

var (
	defaultScheduler *core.Scheduler
	defaultMu        sync.Mutex
)

// Init creates the default scheduler with a quantum of quantumUsecs
// microseconds. The calling goroutine becomes thread 0.
func Init(quantumUsecs int) error {
	return InitWithConfig(core.DefaultSchedulerConfig(quantumUsecs))
}

// InitWithConfig creates the default scheduler from cfg.
// A scheduler that has terminated may be replaced by calling Init again.
func InitWithConfig(cfg *core.SchedulerConfig) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultScheduler != nil && !defaultScheduler.Closed() {
		return ErrAlreadyInitialized
	}

	s, err := core.NewSchedulerWithConfig(cfg)
	if err != nil {
		return err
	}
	defaultScheduler = s
	return nil
}

// Default returns the default scheduler.
// It panics if Init has not been called.
func Default() *core.Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultScheduler == nil {
		panic("uthreads not initialized. Call uthreads.Init() first.")
	}
	return defaultScheduler
}

// Spawn creates a thread running entry and returns its id.
func Spawn(entry func()) (int, error) {
	return Default().Spawn(entry)
}

// Terminate ends thread id. Terminating thread 0 ends the program.
func Terminate(id int) error {
	return Default().Terminate(id)
}

// Block blocks thread id until it is resumed.
func Block(id int) error {
	return Default().Block(id)
}

// Resume makes an explicitly blocked thread ready again.
func Resume(id int) error {
	return Default().Resume(id)
}

// Sync blocks the calling thread until thread id terminates.
func Sync(id int) error {
	return Default().Sync(id)
}

// GetTid returns the id of the calling thread.
func GetTid() int {
	return Default().CurrentID()
}

// GetTotalQuantums returns the number of quanta started so far.
func GetTotalQuantums() int {
	return Default().TotalQuanta()
}

// GetQuantums returns the number of quanta thread id has run.
func GetQuantums(id int) (int, error) {
	return Default().QuantaOf(id)
}

// Checkpoint delivers a pending quantum expiry to the calling thread.
func Checkpoint() error {
	return Default().Checkpoint()
}

// Yield gives up the rest of the calling thread's quantum.
func Yield() error {
	return Default().Yield()
}

// SigProcMask changes the calling thread's blocked-signal set.
func SigProcMask(how MaskHow, set SignalSet) (SignalSet, error) {
	return Default().SigProcMask(how, set)
}
