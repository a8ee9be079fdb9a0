//go:build unix

package core

// MainThreadID is the id of the thread created by the scheduler constructor.
const MainThreadID = 0

// NoSyncTarget marks a thread that is not waiting for another thread to terminate.
const NoSyncTarget = -1

// Status is the stored scheduling state of a thread. A terminated thread has
// no status; its control block is gone.
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// EntryFunc is the body of a thread. Returning from it terminates the thread.
type EntryFunc func()

// Thread is the control block of one user-level thread.
//
// Two independent conditions can hold a thread in StatusBlocked: an explicit
// Block (cleared only by Resume) and a pending Sync (cleared only by the
// termination of the target). The thread becomes ready again when both are
// clear.
type Thread struct {
	id     int
	status Status
	entry  EntryFunc
	stack  []byte
	ctx    *execContext

	// quanta counts the quanta this thread started as the running thread.
	quanta int

	// explicitBlock is set by Block and cleared by Resume.
	explicitBlock bool

	// syncTarget is the id this thread waits on, or NoSyncTarget.
	syncTarget int

	// dependents are the threads waiting for this one to terminate, in the
	// order they called Sync.
	dependents []*Thread

	// queued is maintained by ReadyQueue.
	queued bool

	// exited is set once the control block has been released.
	exited bool
}

func newThread(id int, entry EntryFunc, stack []byte) *Thread {
	return &Thread{
		id:         id,
		status:     StatusReady,
		entry:      entry,
		stack:      stack,
		ctx:        newExecContext(),
		syncTarget: NoSyncTarget,
	}
}

// ID returns the thread id.
func (t *Thread) ID() int { return t.id }

func (t *Thread) isMain() bool { return t.id == MainThreadID }

func (t *Thread) synced() bool { return t.syncTarget != NoSyncTarget }

// ThreadInfo is a point-in-time copy of a thread control block.
type ThreadInfo struct {
	ID            int
	Status        Status
	Quanta        int
	ExplicitBlock bool
	SyncTarget    int
	Dependents    []int
	StackSize     int
}

// Synced reports whether the thread waits on another thread's termination.
func (i ThreadInfo) Synced() bool { return i.SyncTarget != NoSyncTarget }

func (t *Thread) info() ThreadInfo {
	deps := make([]int, len(t.dependents))
	for i, d := range t.dependents {
		deps[i] = d.id
	}
	return ThreadInfo{
		ID:            t.id,
		Status:        t.status,
		Quanta:        t.quanta,
		ExplicitBlock: t.explicitBlock,
		SyncTarget:    t.syncTarget,
		Dependents:    deps,
		StackSize:     len(t.stack),
	}
}
