package scenario

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Swind/go-uthreads/core"
)

// Result is the outcome of one command.
type Result struct {
	Command Command
	OK      bool
	Detail  string
}

// Summary counts the results of a run.
type Summary struct {
	Passed int
	Failed int
	// Exited is set when the script terminated the main thread.
	Exited bool
}

// Runner executes commands on a scheduler. It must be used from the
// scheduler's main thread.
type Runner struct {
	sched  *core.Scheduler
	logger core.Logger

	names map[string]int
	owner map[int]string
	gone  map[string]bool
}

// NewRunner creates a Runner bound to s.
func NewRunner(s *core.Scheduler, logger core.Logger) *Runner {
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	return &Runner{
		sched:  s,
		logger: logger,
		names:  map[string]int{MainName: core.MainThreadID},
		owner:  map[int]string{core.MainThreadID: MainName},
		gone:   make(map[string]bool),
	}
}

// Run executes cmds in order, reporting each result. It stops after exit or
// once the scheduler has terminated.
func (r *Runner) Run(cmds []Command, report func(Result)) Summary {
	var sum Summary
	for _, cmd := range cmds {
		detail, err := r.exec(cmd)
		res := Result{Command: cmd, Detail: detail}

		switch {
		case cmd.Negate:
			var uerr *core.UsageError
			res.OK = errors.As(err, &uerr)
			if res.OK {
				res.Detail = uerr.Error()
			} else if err == nil {
				res.Detail = "command succeeded"
			} else {
				res.Detail = err.Error()
			}
		case err != nil:
			res.Detail = err.Error()
		default:
			res.OK = true
		}

		if res.OK {
			sum.Passed++
		} else {
			sum.Failed++
			r.logger.Warn("scenario step failed", core.F("line", cmd.Line), core.F("command", cmd.String()), core.F("detail", res.Detail))
		}
		if report != nil {
			report(res)
		}

		if cmd.Op == "exit" || r.sched.Closed() {
			sum.Exited = r.sched.Closed()
			break
		}
	}
	return sum
}

func (r *Runner) exec(cmd Command) (string, error) {
	args := cmd.Args
	switch cmd.Op {
	case "spawn":
		return r.spawn(args[0], args[1], args[2:])
	case "block":
		return r.withID(args[0], r.sched.Block)
	case "resume":
		return r.withID(args[0], r.sched.Resume)
	case "terminate":
		return r.withID(args[0], r.sched.Terminate)
	case "yield":
		n := 1
		if len(args) == 1 {
			n, _ = strconv.Atoi(args[0])
		}
		for i := 0; i < n; i++ {
			if err := r.sched.Yield(); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("total quanta %d", r.sched.TotalQuanta()), nil
	case "expect":
		return r.expect(args)
	case "stats":
		st := r.sched.Stats()
		return fmt.Sprintf("running=%d live=%d ready=%d blocked=%d total=%d queue=%v",
			st.Running, st.Live, st.Ready, st.Blocked, st.TotalQuanta, st.ReadyQueue), nil
	case "exit":
		return "", r.sched.Terminate(core.MainThreadID)
	}
	return "", fmt.Errorf("unknown command %q", cmd.Op)
}

func (r *Runner) spawn(name, behavior string, args []string) (string, error) {
	entry, err := r.behavior(behavior, args)
	if err != nil {
		return "", err
	}
	id, err := r.sched.Spawn(entry)
	if err != nil {
		return "", err
	}
	if prev, ok := r.owner[id]; ok && prev != name {
		// The id was freed, so its previous owner has terminated.
		r.gone[prev] = true
	}
	r.names[name] = id
	r.owner[id] = name
	delete(r.gone, name)
	return fmt.Sprintf("id %d", id), nil
}

// behavior builds the entry function of a scripted thread.
func (r *Runner) behavior(kind string, args []string) (core.EntryFunc, error) {
	s := r.sched
	spin := func() {
		for s.Yield() == nil {
		}
	}

	switch kind {
	case BehaviorSpin:
		return spin, nil
	case BehaviorBusy:
		return func() {
			for s.Checkpoint() == nil {
			}
		}, nil
	case BehaviorSelfBlock:
		return func() {
			_ = s.Block(s.CurrentID())
			spin()
		}, nil
	case BehaviorReturn:
		return func() {}, nil
	case BehaviorSync:
		target, err := r.lookup(args[0])
		if err != nil {
			return nil, err
		}
		return func() {
			_ = s.Sync(target)
			spin()
		}, nil
	case BehaviorMask:
		var set core.SignalSet
		for _, name := range args {
			sig, err := core.ParseSignal(name)
			if err != nil {
				return nil, err
			}
			set = set.Add(sig)
		}
		return func() {
			_, _ = s.SigProcMask(core.SigBlock, set)
			spin()
		}, nil
	}
	return nil, fmt.Errorf("unknown behavior %q", kind)
}

func (r *Runner) withID(name string, op func(int) error) (string, error) {
	id, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return "", op(id)
}

// lookup resolves a script name. A name whose thread has terminated and
// whose id was reused resolves to an id no live thread has.
func (r *Runner) lookup(name string) (int, error) {
	id, ok := r.names[name]
	if !ok {
		if n, err := strconv.Atoi(name); err == nil {
			return n, nil
		}
		return 0, fmt.Errorf("unknown thread %q", name)
	}
	if r.gone[name] {
		return -1, nil
	}
	return id, nil
}

func (r *Runner) expect(args []string) (string, error) {
	if args[0] == "total" {
		want, _ := strconv.Atoi(args[1])
		if got := r.sched.TotalQuanta(); got != want {
			return "", fmt.Errorf("total quanta = %d, want %d", got, want)
		}
		return "", nil
	}

	id, err := r.lookup(args[0])
	if err != nil {
		return "", err
	}
	info, infoErr := r.sched.Thread(id)

	switch args[1] {
	case "status":
		got := "terminated"
		if infoErr == nil {
			got = info.Status.String()
		}
		if got != args[2] {
			return "", fmt.Errorf("%s status = %s, want %s", args[0], got, args[2])
		}
	case "quanta":
		if infoErr != nil {
			return "", fmt.Errorf("%s: %w", args[0], infoErr)
		}
		want, _ := strconv.Atoi(args[2])
		if info.Quanta != want {
			return "", fmt.Errorf("%s quanta = %d, want %d", args[0], info.Quanta, want)
		}
	}
	return "", nil
}
