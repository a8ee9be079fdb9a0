// Package uthreads provides user-level threads multiplexed onto a single flow
// of control, with round-robin scheduling and timer-driven preemption.
//
// The goroutine that initializes the library becomes the main thread (id 0).
// Every thread created with Spawn runs only while it holds the processor;
// all others are READY in a FIFO queue or BLOCKED. When the running thread's
// quantum expires, it moves to the back of the ready queue and the head of
// the queue runs next.
//
// # Quick Start
//
// Initialize the library once, from the goroutine that is to become thread 0:
//
//	if err := uthreads.Init(10000); err != nil { // 10ms quantum
//		log.Fatal(err)
//	}
//
// Spawn threads and let them run:
//
//	id, _ := uthreads.Spawn(func() {
//		for {
//			work()
//			uthreads.Checkpoint()
//		}
//	})
//	uthreads.Sync(id) // only from a non-main thread
//	uthreads.Terminate(0) // ends every thread and exits the process
//
// # Key Concepts
//
// Quantum: the time slice granted to the running thread. The scheduler counts
// quanta globally (GetTotalQuantums) and per thread (GetQuantums).
//
// Block / Resume: an explicit block holds a thread out of the ready queue
// until it is resumed. Blocking an already blocked thread is a no-op.
//
// Sync: the calling thread waits until another thread terminates. A thread
// can be both synced and explicitly blocked; it becomes ready only when both
// conditions are clear.
//
// Preemption points: a quantum expiry is delivered when the running thread
// calls Checkpoint or Yield, or leaves any state-changing library call. A
// thread that blocks PreemptSignal with SigProcMask defers preemption until
// it unblocks it.
//
// # Errors
//
// Illegal calls return a *core.UsageError ("thread library error") and leave
// the scheduler untouched. Failures of the underlying timer are system
// errors: every thread is released and the process exits with status 1.
//
// Signal sets use the numbering of golang.org/x/sys/unix, so the library
// builds on unix systems only.
//
// For more control, create schedulers directly with core.NewSchedulerWithConfig.
package uthreads
