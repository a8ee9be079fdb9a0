//go:build unix

package core

// StackArena owns one fixed-size stack region per thread id, carved out of a
// single allocation. A region belongs to a thread from spawn until
// termination and is zeroed when released.
type StackArena struct {
	mem  []byte
	size int
	held []bool
}

// NewStackArena reserves slots regions of size bytes each.
func NewStackArena(slots, size int) *StackArena {
	return &StackArena{
		mem:  make([]byte, slots*size),
		size: size,
		held: make([]bool, slots),
	}
}

// Acquire hands out the region for id. The returned slice has len == cap ==
// the stack size, so appends cannot spill into a neighbouring stack.
func (a *StackArena) Acquire(id int) ([]byte, bool) {
	if id < 0 || id >= len(a.held) || a.held[id] {
		return nil, false
	}
	a.held[id] = true
	lo, hi := id*a.size, (id+1)*a.size
	return a.mem[lo:hi:hi], true
}

// Release zeroes the region for id and makes it available again.
func (a *StackArena) Release(id int) {
	if id < 0 || id >= len(a.held) || !a.held[id] {
		return
	}
	clear(a.mem[id*a.size : (id+1)*a.size])
	a.held[id] = false
}

// StackSize returns the size of one region in bytes.
func (a *StackArena) StackSize() int { return a.size }

// InUse returns how many regions are currently held.
func (a *StackArena) InUse() int {
	n := 0
	for _, h := range a.held {
		if h {
			n++
		}
	}
	return n
}
