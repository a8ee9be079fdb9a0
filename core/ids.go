//go:build unix

package core

import "container/heap"

// idHeap is a min-heap of free thread ids.
type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	id := old[n-1]
	*h = old[:n-1]
	return id
}

// IDPool hands out thread ids from [0, max), always the smallest free one.
// It is not safe for concurrent use; the scheduler guards it with its lock.
type IDPool struct {
	free  idHeap
	inUse []bool
}

// NewIDPool creates a pool with every id in [0, max) free.
func NewIDPool(max int) *IDPool {
	p := &IDPool{
		free:  make(idHeap, 0, max),
		inUse: make([]bool, max),
	}
	for id := 0; id < max; id++ {
		p.free = append(p.free, id)
	}
	heap.Init(&p.free)
	return p
}

// Allocate returns the smallest unused id, or false when the pool is exhausted.
func (p *IDPool) Allocate() (int, bool) {
	if len(p.free) == 0 {
		return 0, false
	}
	id := heap.Pop(&p.free).(int)
	p.inUse[id] = true
	return id, true
}

// Free returns id to the pool. Freeing an id that is not allocated is a no-op.
func (p *IDPool) Free(id int) {
	if id < 0 || id >= len(p.inUse) || !p.inUse[id] {
		return
	}
	p.inUse[id] = false
	heap.Push(&p.free, id)
}

// InUse reports whether id is currently allocated.
func (p *IDPool) InUse(id int) bool {
	return id >= 0 && id < len(p.inUse) && p.inUse[id]
}

// Available returns the number of free ids.
func (p *IDPool) Available() int { return len(p.free) }

// Cap returns the pool bound.
func (p *IDPool) Cap() int { return len(p.inUse) }
