//go:build unix

package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// ReadyQueue is the FIFO of threads waiting for the processor.
// Insertion order is the only fairness mechanism (round-robin).
//
// A thread is queued at most once; ReadyQueue tracks membership on the
// thread itself. It has no lock of its own: every caller holds the
// scheduler lock.
type ReadyQueue struct {
	threads []*Thread
}

func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{
		threads: make([]*Thread, 0, defaultQueueCap),
	}
}

// PushBack appends t. It returns false, leaving the queue unchanged, if t is
// already queued.
func (q *ReadyQueue) PushBack(t *Thread) bool {
	if t.queued {
		return false
	}
	t.queued = true
	q.threads = append(q.threads, t)
	return true
}

// PopFront removes and returns the head of the queue.
func (q *ReadyQueue) PopFront() (*Thread, bool) {
	if len(q.threads) == 0 {
		return nil, false
	}

	t := q.threads[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.threads[0] = nil
	q.threads = q.threads[1:]
	t.queued = false
	q.maybeCompact()

	return t, true
}

// PeekFront returns the head of the queue without removing it.
func (q *ReadyQueue) PeekFront() (*Thread, bool) {
	if len(q.threads) == 0 {
		return nil, false
	}
	return q.threads[0], true
}

// Remove deletes t from the queue, keeping the order of the others.
// It reports whether t was queued.
func (q *ReadyQueue) Remove(t *Thread) bool {
	if !t.queued {
		return false
	}
	for i, queued := range q.threads {
		if queued == t {
			copy(q.threads[i:], q.threads[i+1:])
			q.threads[len(q.threads)-1] = nil
			q.threads = q.threads[:len(q.threads)-1]
			t.queued = false
			q.maybeCompact()
			return true
		}
	}
	return false
}

// Contains reports whether t is queued.
func (q *ReadyQueue) Contains(t *Thread) bool {
	return t != nil && t.queued
}

func (q *ReadyQueue) Len() int {
	return len(q.threads)
}

func (q *ReadyQueue) IsEmpty() bool {
	return len(q.threads) == 0
}

// IDs returns the queued thread ids in scheduling order.
func (q *ReadyQueue) IDs() []int {
	ids := make([]int, len(q.threads))
	for i, t := range q.threads {
		ids[i] = t.id
	}
	return ids
}

// Clear drops every queued thread.
func (q *ReadyQueue) Clear() {
	for _, t := range q.threads {
		t.queued = false
	}
	q.threads = make([]*Thread, 0, defaultQueueCap)
}

func (q *ReadyQueue) maybeCompact() {
	n := len(q.threads)
	c := cap(q.threads)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.threads = make([]*Thread, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*Thread, n, newCap)
	copy(newSlice, q.threads)
	q.threads = newSlice
}
