// Package scenario runs scripted thread scenarios against a scheduler.
//
// A script is a list of commands, one per line, executed in order by the
// scheduler's main thread:
//
//	# two threads sharing the processor
//	spawn a spin
//	spawn b spin
//	yield 2
//	expect a quanta 2
//	expect total 7
//
// Lines are split with shell quoting rules; '#' starts a comment. The busy
// behaviour relies on timer preemption and never yields on its own; the
// others hand the processor back on every turn. Prefixing a
// command with "fail" inverts it: the line passes only if the command is
// rejected with a thread library error.
package scenario

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Swind/go-uthreads/core"
	"github.com/google/shlex"
)

// Command is one parsed script line.
type Command struct {
	Line   int
	Op     string
	Args   []string
	Negate bool
}

func (c Command) String() string {
	parts := append([]string{c.Op}, c.Args...)
	if c.Negate {
		parts = append([]string{"fail"}, parts...)
	}
	return strings.Join(parts, " ")
}

// ParseError reports an invalid script line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Thread behaviours accepted by spawn.
const (
	BehaviorSpin      = "spin"
	BehaviorBusy      = "busy"
	BehaviorSelfBlock = "selfblock"
	BehaviorReturn    = "return"
	BehaviorSync      = "sync"
	BehaviorMask      = "mask"
)

// MainName refers to thread 0 in scripts.
const MainName = "main"

// Parse reads a script.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields, err := shlex.Split(scanner.Text())
		if err != nil {
			return nil, &ParseError{Line: line, Msg: err.Error()}
		}
		if len(fields) == 0 {
			continue
		}

		cmd := Command{Line: line}
		if fields[0] == "fail" {
			cmd.Negate = true
			fields = fields[1:]
			if len(fields) == 0 {
				return nil, &ParseError{Line: line, Msg: "fail needs a command"}
			}
		}
		cmd.Op, cmd.Args = fields[0], fields[1:]

		if err := validate(cmd); err != nil {
			return nil, &ParseError{Line: line, Msg: err.Error()}
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// ParseString parses a script held in memory.
func ParseString(script string) ([]Command, error) {
	return Parse(strings.NewReader(script))
}

func validate(cmd Command) error {
	args := cmd.Args
	switch cmd.Op {
	case "spawn":
		if len(args) < 2 {
			return fmt.Errorf("usage: spawn NAME BEHAVIOR [ARGS]")
		}
		if args[0] == MainName {
			return fmt.Errorf("%q is reserved for thread 0", MainName)
		}
		return validateBehavior(args[1], args[2:])
	case "block", "resume", "terminate":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s NAME", cmd.Op)
		}
	case "yield":
		if len(args) > 1 {
			return fmt.Errorf("usage: yield [N]")
		}
		if len(args) == 1 {
			if _, err := positive(args[0]); err != nil {
				return err
			}
		}
	case "expect":
		return validateExpect(args)
	case "stats", "exit":
		if len(args) != 0 {
			return fmt.Errorf("%s takes no arguments", cmd.Op)
		}
	default:
		return fmt.Errorf("unknown command %q", cmd.Op)
	}
	return nil
}

func validateBehavior(behavior string, args []string) error {
	switch behavior {
	case BehaviorSpin, BehaviorBusy, BehaviorSelfBlock, BehaviorReturn:
		if len(args) != 0 {
			return fmt.Errorf("%s takes no arguments", behavior)
		}
	case BehaviorSync:
		if len(args) != 1 {
			return fmt.Errorf("usage: spawn NAME sync TARGET")
		}
	case BehaviorMask:
		if len(args) == 0 {
			return fmt.Errorf("usage: spawn NAME mask SIGNAL...")
		}
		for _, name := range args {
			sig, err := core.ParseSignal(name)
			if err != nil {
				return err
			}
			// A scripted thread with preemption masked would never give
			// the processor back.
			if sig == core.PreemptSignal {
				return fmt.Errorf("%s cannot be masked in a script", core.NewSignalSet(sig))
			}
		}
	default:
		return fmt.Errorf("unknown behavior %q", behavior)
	}
	return nil
}

func validateExpect(args []string) error {
	if len(args) == 2 && args[0] == "total" {
		_, err := strconv.Atoi(args[1])
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("usage: expect total N | expect NAME status S | expect NAME quanta N")
	}
	switch args[1] {
	case "status":
		switch args[2] {
		case "ready", "running", "blocked", "terminated":
			return nil
		}
		return fmt.Errorf("unknown status %q", args[2])
	case "quanta":
		_, err := strconv.Atoi(args[2])
		return err
	default:
		return fmt.Errorf("unknown expectation %q", args[1])
	}
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("count must be positive, got %d", n)
	}
	return n, nil
}
