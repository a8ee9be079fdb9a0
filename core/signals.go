//go:build unix

package core

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// PreemptSignal is the signal that carries quantum expiry. Blocking it in a
// thread's mask defers preemption of that thread until it is unblocked.
const PreemptSignal = unix.SIGVTALRM

// SignalSet is a set of signals numbered 1..64, the user-level equivalent of
// a sigset_t. The zero value is the empty set.
type SignalSet uint64

// NewSignalSet returns the set holding sigs. Out-of-range signals are ignored.
func NewSignalSet(sigs ...unix.Signal) SignalSet {
	var s SignalSet
	for _, sig := range sigs {
		s = s.Add(sig)
	}
	return s
}

func signalBit(sig unix.Signal) (SignalSet, bool) {
	if sig < 1 || sig > 64 {
		return 0, false
	}
	return SignalSet(1) << (uint(sig) - 1), true
}

// Add returns s with sig added.
func (s SignalSet) Add(sig unix.Signal) SignalSet {
	if bit, ok := signalBit(sig); ok {
		return s | bit
	}
	return s
}

// Del returns s with sig removed.
func (s SignalSet) Del(sig unix.Signal) SignalSet {
	if bit, ok := signalBit(sig); ok {
		return s &^ bit
	}
	return s
}

// Has reports whether sig is a member of s.
func (s SignalSet) Has(sig unix.Signal) bool {
	bit, ok := signalBit(sig)
	return ok && s&bit != 0
}

// Union returns the signals in s or o.
func (s SignalSet) Union(o SignalSet) SignalSet { return s | o }

// Subtract returns s without the signals in o.
func (s SignalSet) Subtract(o SignalSet) SignalSet { return s &^ o }

// IsEmpty reports whether s holds no signal.
func (s SignalSet) IsEmpty() bool { return s == 0 }

// Signals lists the members of s in ascending order.
func (s SignalSet) Signals() []unix.Signal {
	var sigs []unix.Signal
	for sig := unix.Signal(1); sig <= 64; sig++ {
		if s.Has(sig) {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

func (s SignalSet) String() string {
	sigs := s.Signals()
	names := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		names = append(names, signalName(sig))
	}
	return "{" + strings.Join(names, ",") + "}"
}

func signalName(sig unix.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("SIG%d", int(sig))
}

// ParseSignal accepts "SIGUSR1", "usr1" or a number.
func ParseSignal(name string) (unix.Signal, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return 0, fmt.Errorf("empty signal name")
	}
	var n int
	if _, err := fmt.Sscanf(upper, "%d", &n); err == nil && fmt.Sprint(n) == upper {
		if n < 1 || n > 64 {
			return 0, fmt.Errorf("signal %d out of range", n)
		}
		return unix.Signal(n), nil
	}
	if !strings.HasPrefix(upper, "SIG") {
		upper = "SIG" + upper
	}
	sig := unix.SignalNum(upper)
	if sig == 0 {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// MaskHow selects how SigProcMask combines the given set with the current mask.
type MaskHow int

const (
	// SigBlock adds the set to the mask.
	SigBlock MaskHow = iota
	// SigUnblock removes the set from the mask.
	SigUnblock
	// SigSetMask replaces the mask.
	SigSetMask
)

func (h MaskHow) apply(current, set SignalSet) SignalSet {
	switch h {
	case SigBlock:
		return current.Union(set)
	case SigUnblock:
		return current.Subtract(set)
	default:
		return set
	}
}
