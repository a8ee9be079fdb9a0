//go:build unix

package core

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler multiplexes user-level threads onto a single flow of control.
//
// Exactly one thread runs at a time. The goroutine that constructs the
// scheduler becomes the main thread (id 0); every other thread runs on a
// goroutine of its own that is parked whenever the thread is not running.
//
// All shared state is mutated under mu, the equivalent of running with the
// preemption signal blocked. A quantum expiry raised by the timer while mu is
// held stays pending and is delivered when the operation leaves its critical
// section, or at the next Checkpoint.
//
// Operations that change thread state must be called from the running
// thread. Read-only accessors (Stats, Thread, RecentSwitches) may be called
// from any goroutine.
type Scheduler struct {
	mu sync.Mutex

	quantum    time.Duration
	maxThreads int

	threads []*Thread
	ids     *IDPool
	ready   *ReadyQueue
	stacks  *StackArena
	running *Thread

	// total counts quanta since construction, the current one included.
	total int

	// mask is the blocked-signal set in effect for the running thread.
	mask SignalSet

	// pending is set by the timer on quantum expiry and consumed under mu.
	pending atomic.Bool

	timer   Timer
	history *switchHistory

	logger  Logger
	metrics Metrics
	panics  PanicHandler
	exit    func(code int)

	closed bool
	done   chan struct{}
}

// NewScheduler creates a scheduler with a quantum of quantumUsecs
// microseconds and default settings. The calling goroutine becomes the main
// thread.
func NewScheduler(quantumUsecs int) (*Scheduler, error) {
	return NewSchedulerWithConfig(DefaultSchedulerConfig(quantumUsecs))
}

// NewSchedulerWithConfig creates a scheduler from config. The calling
// goroutine becomes the main thread, RUNNING with one quantum.
//
// Invalid settings are reported without creating any state. A timer that
// cannot be started is a system error: it is logged and ExitFunc(1) is
// called.
func NewSchedulerWithConfig(config *SchedulerConfig) (*Scheduler, error) {
	if config == nil {
		config = &SchedulerConfig{}
	}
	cfg := config.withDefaults()

	if err := cfg.Validate(); err != nil {
		cfg.Logger.Warn("thread library error", F("op", "init"), F("error", err))
		if errors.Is(err, ErrInvalidQuantum) {
			cfg.Metrics.RecordUsageError("init")
			return nil, &UsageError{Op: "init", ID: -1, Err: err}
		}
		return nil, err
	}

	timer := cfg.Timer
	if timer == nil {
		var err error
		if timer, err = NewTimer(cfg.TimerKind); err != nil {
			cfg.Logger.Warn("thread library error", F("op", "init"), F("error", err))
			return nil, err
		}
	}

	s := &Scheduler{
		quantum:    cfg.Quantum(),
		maxThreads: cfg.MaxThreads,
		threads:    make([]*Thread, cfg.MaxThreads),
		ids:        NewIDPool(cfg.MaxThreads),
		ready:      NewReadyQueue(),
		stacks:     NewStackArena(cfg.MaxThreads, cfg.StackSize),
		timer:      timer,
		history:    newSwitchHistory(cfg.HistoryCapacity),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		panics:     cfg.PanicHandler,
		exit:       cfg.ExitFunc,
		done:       make(chan struct{}),
	}

	id, _ := s.ids.Allocate()
	stack, _ := s.stacks.Acquire(id)
	main := newThread(id, nil, stack)
	main.status = StatusRunning
	main.quanta = 1
	s.threads[id] = main
	s.running = main
	s.total = 1

	if err := timer.Start(s.quantum, s.onQuantumExpired); err != nil {
		s.mu.Lock()
		return nil, s.abortLocked("start timer", err)
	}

	s.logger.Info("scheduler initialized",
		F("quantum", s.quantum),
		F("max_threads", s.maxThreads),
		F("stack_size", cfg.StackSize))
	return s, nil
}

// onQuantumExpired runs on the timer's goroutine.
func (s *Scheduler) onQuantumExpired() {
	s.metrics.RecordQuantumExpired()
	s.pending.Store(true)
}

// =============================================================================
// Public operations
// =============================================================================

// Spawn creates a thread running entry and appends it to the ready queue.
// It returns the new thread's id, the smallest one free.
func (s *Scheduler) Spawn(entry EntryFunc) (int, error) {
	s.mu.Lock()
	id, err := s.spawnLocked(entry)
	return id, s.finishLocked(err)
}

func (s *Scheduler) spawnLocked(entry EntryFunc) (int, error) {
	if s.closed {
		return -1, ErrClosed
	}
	if entry == nil {
		return -1, s.usageLocked("spawn", -1, ErrNilEntry)
	}

	id, ok := s.ids.Allocate()
	if !ok {
		return -1, s.usageLocked("spawn", -1, ErrTooManyThreads)
	}
	stack, _ := s.stacks.Acquire(id)

	t := newThread(id, entry, stack)
	s.threads[id] = t
	s.ready.PushBack(t)
	go s.run(t)

	s.metrics.RecordThreadSpawned()
	s.metrics.RecordReadyQueueDepth(s.ready.Len())
	s.logger.Debug("thread spawned", F("tid", id))
	return id, nil
}

// Terminate ends thread id and releases its resources. Threads waiting on it
// through Sync are revived.
//
// When id is the calling thread, Terminate does not return. Terminating the
// main thread ends every thread and calls ExitFunc(0).
func (s *Scheduler) Terminate(id int) error {
	s.mu.Lock()
	t, err := s.lookupLocked("terminate", id)
	if err != nil {
		return s.finishLocked(err)
	}
	return s.terminateLocked(t)
}

func (s *Scheduler) terminateLocked(t *Thread) error {
	if t.isMain() {
		return s.exitProcessLocked()
	}

	s.reviveDependentsLocked(t)
	s.clearSyncLocked(t)

	if t == s.running {
		s.releaseLocked(t)
		s.logger.Debug("thread terminated", F("tid", t.id), F("self", true))
		if err := s.dispatchLocked(t, SwitchTerminated); err == nil {
			s.mu.Unlock()
		}
		// On a failed dispatch mu is already released. The control block is
		// gone either way, so the goroutine must not return to the entry.
		runtime.Goexit()
		return nil
	}

	s.releaseLocked(t)
	t.ctx.kill()
	s.logger.Debug("thread terminated", F("tid", t.id), F("self", false))
	return s.finishLocked(nil)
}

// Block blocks thread id until it is resumed. Blocking an already blocked
// thread is a no-op. A thread blocking itself is suspended until resumed.
// The main thread cannot be blocked.
func (s *Scheduler) Block(id int) error {
	s.mu.Lock()
	t, err := s.lookupLocked("block", id)
	if err != nil {
		return s.finishLocked(err)
	}
	if t.isMain() {
		return s.finishLocked(s.usageLocked("block", id, ErrMainThread))
	}
	if t.explicitBlock {
		return s.finishLocked(nil)
	}

	t.explicitBlock = true
	t.status = StatusBlocked
	if t == s.running {
		return s.suspendLocked(SwitchBlocked)
	}
	s.ready.Remove(t)
	s.metrics.RecordReadyQueueDepth(s.ready.Len())
	return s.finishLocked(nil)
}

// Resume clears an explicit block on thread id. The thread becomes ready
// unless it is still waiting on a Sync. Resuming a thread that is not
// explicitly blocked is a no-op.
func (s *Scheduler) Resume(id int) error {
	s.mu.Lock()
	t, err := s.lookupLocked("resume", id)
	if err != nil {
		return s.finishLocked(err)
	}

	if t.explicitBlock {
		t.explicitBlock = false
		if !t.synced() {
			t.status = StatusReady
			s.ready.PushBack(t)
			s.metrics.RecordReadyQueueDepth(s.ready.Len())
		}
	}
	return s.finishLocked(nil)
}

// Sync blocks the calling thread until thread id terminates.
// The main thread cannot sync, and a thread cannot sync to itself.
func (s *Scheduler) Sync(id int) error {
	s.mu.Lock()
	target, err := s.lookupLocked("sync", id)
	if err != nil {
		return s.finishLocked(err)
	}
	self := s.running
	if target == self {
		return s.finishLocked(s.usageLocked("sync", id, ErrSelfSync))
	}
	if self.isMain() {
		return s.finishLocked(s.usageLocked("sync", id, ErrMainThread))
	}

	self.syncTarget = target.id
	self.status = StatusBlocked
	target.addDependent(self)
	return s.suspendLocked(SwitchSynced)
}

// CurrentID returns the id of the running thread.
func (s *Scheduler) CurrentID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.id
}

// TotalQuanta returns the number of quanta started since construction,
// including the current one.
func (s *Scheduler) TotalQuanta() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// QuantaOf returns the number of quanta thread id has started as the running
// thread. It is 0 for a thread that was never scheduled.
func (s *Scheduler) QuantaOf(id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookupLocked("get quantums", id)
	if err != nil {
		return -1, err
	}
	return t.quanta, nil
}

// Checkpoint delivers a pending quantum expiry to the calling thread, which
// may be suspended here. It returns ErrClosed once the scheduler has
// terminated.
func (s *Scheduler) Checkpoint() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return s.leaveLocked()
}

// Yield raises a quantum expiry for the calling thread and delivers it. With
// the preemption signal blocked it stays pending until unblocked.
func (s *Scheduler) Yield() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending.Store(true)
	return s.leaveLocked()
}

// SigProcMask changes the calling thread's blocked-signal set and returns the
// previous one. The set travels with the thread across context switches.
func (s *Scheduler) SigProcMask(how MaskHow, set SignalSet) (SignalSet, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	old := s.mask
	s.mask = how.apply(old, set)
	return old, s.leaveLocked()
}

// SignalMask returns the calling thread's blocked-signal set.
func (s *Scheduler) SignalMask() SignalSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask
}

// Stack returns the calling thread's stack region.
func (s *Scheduler) Stack() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.stack
}

// Thread returns a snapshot of thread id.
func (s *Scheduler) Thread(id int) (ThreadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.threadLocked(id)
	if t == nil {
		return ThreadInfo{}, &UsageError{Op: "thread", ID: id, Err: ErrNoSuchThread}
	}
	return t.info(), nil
}

// Stats returns a snapshot of the scheduler state.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SchedulerStats{
		Running:     -1,
		TotalQuanta: s.total,
		MaxThreads:  s.maxThreads,
		Closed:      s.closed,
		ReadyQueue:  s.ready.IDs(),
	}
	if s.running != nil && !s.running.exited {
		stats.Running = s.running.id
	}
	for _, t := range s.threads {
		if t == nil {
			continue
		}
		stats.Live++
		switch t.status {
		case StatusReady:
			stats.Ready++
		case StatusBlocked:
			stats.Blocked++
		}
	}
	return stats
}

// RecentSwitches returns up to limit switch records, newest first.
func (s *Scheduler) RecentSwitches(limit int) []SwitchRecord {
	return s.history.Recent(limit)
}

// Quantum returns the configured quantum.
func (s *Scheduler) Quantum() time.Duration { return s.quantum }

// MaxThreads returns the bound on live threads.
func (s *Scheduler) MaxThreads() int { return s.maxThreads }

// Done is closed when the scheduler terminates.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Closed reports whether the scheduler has terminated.
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// =============================================================================
// Thread goroutines
// =============================================================================

// run is the goroutine behind a spawned thread.
func (s *Scheduler) run(t *Thread) {
	if err := t.ctx.park(); err != nil {
		// Terminated before it was ever scheduled.
		return
	}
	defer s.recoverThread(t)
	t.entry()
	s.exitThread(t)
}

func (s *Scheduler) recoverThread(t *Thread) {
	r := recover()
	if r == nil {
		return
	}
	s.panics.HandlePanic(t.id, r, debug.Stack())
	s.exitThread(t)
}

// exitThread terminates t after its entry function returned or panicked.
func (s *Scheduler) exitThread(t *Thread) {
	s.mu.Lock()
	if s.closed || t.exited {
		s.mu.Unlock()
		return
	}
	s.logger.Debug("thread entry returned", F("tid", t.id))
	_ = s.terminateLocked(t)
}

// =============================================================================
// Scheduler core
// =============================================================================

// finishLocked leaves the critical section and returns err, or the result of
// delivering a pending expiry when err is nil.
func (s *Scheduler) finishLocked(err error) error {
	if lerr := s.leaveLocked(); err == nil {
		return lerr
	}
	return err
}

// leaveLocked releases mu, first delivering a pending quantum expiry unless
// the running thread blocks the preemption signal.
func (s *Scheduler) leaveLocked() error {
	if s.closed || !s.pending.Load() || s.mask.Has(PreemptSignal) {
		s.mu.Unlock()
		return nil
	}
	s.pending.Store(false)
	return s.expireLocked()
}

// expireLocked handles a delivered quantum expiry for the running thread.
func (s *Scheduler) expireLocked() error {
	self := s.running
	if s.ready.IsEmpty() {
		s.total++
		self.quanta++
		s.recordLocked(self.id, self.id, SwitchRenewed)
		s.mu.Unlock()
		return nil
	}

	self.status = StatusReady
	s.ready.PushBack(self)
	return s.suspendLocked(SwitchPreempted)
}

// suspendLocked saves the running thread's context, hands the processor to
// the head of the ready queue, and parks the caller until it is scheduled
// again. The caller must already be queued, blocked or waiting. Returns with
// mu released.
func (s *Scheduler) suspendLocked(reason SwitchReason) error {
	self := s.running
	self.ctx.save(s.mask)
	if err := s.dispatchLocked(self, reason); err != nil {
		return err
	}
	s.mu.Unlock()

	if err := self.ctx.park(); err != nil {
		return s.unwind(self)
	}
	return nil
}

// dispatchLocked starts a new quantum for the head of the ready queue.
// Any pending expiry is discarded: this switch supersedes it. On failure the
// scheduler is aborted and mu released.
func (s *Scheduler) dispatchLocked(from *Thread, reason SwitchReason) error {
	next, ok := s.ready.PopFront()
	if !ok {
		return s.abortLocked("dispatch", errors.New("no runnable thread"))
	}

	if err := s.timer.Reset(); err != nil {
		return s.abortLocked("reset timer", err)
	}

	s.total++
	next.status = StatusRunning
	next.quanta++
	s.running = next
	s.pending.Store(false)

	s.recordLocked(from.id, next.id, reason)
	s.mask = next.ctx.restore()
	return nil
}

func (s *Scheduler) recordLocked(from, to int, reason SwitchReason) {
	s.history.Add(SwitchRecord{
		TotalQuanta: s.total,
		From:        from,
		To:          to,
		Reason:      reason,
		At:          time.Now(),
	})
	s.metrics.RecordSwitch(reason)
	s.metrics.RecordReadyQueueDepth(s.ready.Len())
	s.logger.Debug("quantum started",
		F("from", from),
		F("to", to),
		F("reason", reason),
		F("total_quanta", s.total))
}

// unwind handles a thread that was killed while parked. Spawned threads end
// their goroutine; the main thread's goroutine belongs to the caller, so it
// gets ErrClosed instead.
func (s *Scheduler) unwind(t *Thread) error {
	if t.isMain() {
		return ErrClosed
	}
	runtime.Goexit()
	return nil
}

// releaseLocked destroys t's control block: it leaves the ready queue, its
// stack is zeroed and its id returns to the pool.
func (s *Scheduler) releaseLocked(t *Thread) {
	t.exited = true
	s.ready.Remove(t)
	s.threads[t.id] = nil
	s.stacks.Release(t.id)
	s.ids.Free(t.id)
	t.stack = nil
	s.metrics.RecordThreadTerminated()
}

// exitProcessLocked terminates the main thread: every thread is released and
// ExitFunc(0) is called. Returns with mu released.
func (s *Scheduler) exitProcessLocked() error {
	caller := s.running
	s.logger.Info("main thread terminated", F("live_threads", s.liveLocked()))
	s.shutdownLocked()
	s.mu.Unlock()

	s.exit(0)
	if !caller.isMain() {
		runtime.Goexit()
	}
	return nil
}

// abortLocked handles a system error: the error is logged, every thread is
// released and ExitFunc(1) is called. Returns with mu released.
func (s *Scheduler) abortLocked(op string, err error) error {
	sysErr := &SystemError{Op: op, Err: err}
	s.logger.Error("system error", F("op", op), F("error", err))
	s.shutdownLocked()
	s.mu.Unlock()

	s.exit(1)
	return sysErr
}

// shutdownLocked stops the timer and releases every thread. Parked thread
// goroutines are woken so they unwind.
func (s *Scheduler) shutdownLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.timer.Stop()

	for _, t := range s.threads {
		if t == nil {
			continue
		}
		if t != s.running {
			t.ctx.kill()
		}
		s.releaseLocked(t)
	}
	s.ready.Clear()
	close(s.done)
}

// lookupLocked returns the live thread id, or a usage error.
func (s *Scheduler) lookupLocked(op string, id int) (*Thread, error) {
	if s.closed {
		return nil, ErrClosed
	}
	t := s.threadLocked(id)
	if t == nil {
		return nil, s.usageLocked(op, id, ErrNoSuchThread)
	}
	return t, nil
}

func (s *Scheduler) threadLocked(id int) *Thread {
	if id < 0 || id >= len(s.threads) {
		return nil
	}
	return s.threads[id]
}

// usageLocked reports a usage error once, at its point of detection.
func (s *Scheduler) usageLocked(op string, id int, err error) error {
	uerr := &UsageError{Op: op, ID: id, Err: err}
	s.logger.Warn("thread library error", F("op", op), F("tid", id), F("error", err))
	s.metrics.RecordUsageError(op)
	return uerr
}

func (s *Scheduler) liveLocked() int {
	n := 0
	for _, t := range s.threads {
		if t != nil {
			n++
		}
	}
	return n
}
