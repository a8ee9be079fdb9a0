//go:build unix

package core

import (
	"slices"
	"testing"
)

func newQueuedThreads(n int) []*Thread {
	threads := make([]*Thread, n)
	for i := range threads {
		threads[i] = newThread(i+1, func() {}, nil)
	}
	return threads
}

// TestReadyQueue_FIFO verifies round-robin ordering
// Given: Three threads pushed in order 1, 2, 3
// When: The queue is drained
// Then: Threads come out in insertion order
func TestReadyQueue_FIFO(t *testing.T) {
	// Arrange
	q := NewReadyQueue()
	threads := newQueuedThreads(3)

	// Act
	for _, th := range threads {
		if !q.PushBack(th) {
			t.Fatalf("PushBack(%d) = false, want true", th.id)
		}
	}

	// Assert
	for i, want := range threads {
		got, ok := q.PopFront()
		if !ok {
			t.Fatalf("Step %d: queue is empty, want thread %d", i, want.id)
		}
		if got != want {
			t.Errorf("Step %d: thread = %d, want %d", i, got.id, want.id)
		}
	}
	if !q.IsEmpty() {
		t.Errorf("IsEmpty() = false after draining")
	}
}

// TestReadyQueue_NoDuplicates verifies a thread is queued at most once
// Given: A thread already in the queue
// When: It is pushed again
// Then: PushBack reports false and the length is unchanged
func TestReadyQueue_NoDuplicates(t *testing.T) {
	// Arrange
	q := NewReadyQueue()
	th := newThread(1, func() {}, nil)
	q.PushBack(th)

	// Act
	pushed := q.PushBack(th)

	// Assert
	if pushed {
		t.Errorf("second PushBack = true, want false")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

// TestReadyQueue_Remove verifies removal from the middle keeps order
// Given: Threads 1..4 queued
// When: Thread 2 is removed
// Then: The order is 1, 3, 4 and thread 2 may be pushed again
func TestReadyQueue_Remove(t *testing.T) {
	// Arrange
	q := NewReadyQueue()
	threads := newQueuedThreads(4)
	for _, th := range threads {
		q.PushBack(th)
	}

	// Act
	removed := q.Remove(threads[1])

	// Assert
	if !removed {
		t.Fatalf("Remove = false, want true")
	}
	if got, want := q.IDs(), []int{1, 3, 4}; !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if q.Contains(threads[1]) {
		t.Errorf("Contains(removed) = true")
	}
	if q.Remove(threads[1]) {
		t.Errorf("second Remove = true, want false")
	}
	if !q.PushBack(threads[1]) {
		t.Errorf("PushBack after Remove = false, want true")
	}
}

// TestReadyQueue_PeekAndClear verifies peeking does not consume and Clear resets membership
func TestReadyQueue_PeekAndClear(t *testing.T) {
	q := NewReadyQueue()
	if _, ok := q.PeekFront(); ok {
		t.Fatalf("PeekFront on empty queue = ok")
	}

	threads := newQueuedThreads(2)
	for _, th := range threads {
		q.PushBack(th)
	}

	head, ok := q.PeekFront()
	if !ok || head != threads[0] {
		t.Fatalf("PeekFront = %v, %v, want thread 1", head, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Len() after peek = %d, want 2", q.Len())
	}

	q.Clear()
	if !q.IsEmpty() {
		t.Errorf("IsEmpty() after Clear = false")
	}
	for _, th := range threads {
		if th.queued {
			t.Errorf("thread %d still marked queued after Clear", th.id)
		}
	}
}

// TestReadyQueue_Compaction verifies the backing array shrinks after a burst
// Given: A queue that grew well past compactMinCap
// When: Almost every thread is popped
// Then: Capacity shrinks while the remaining threads stay in order
func TestReadyQueue_Compaction(t *testing.T) {
	// Arrange
	q := NewReadyQueue()
	threads := newQueuedThreads(256)
	for _, th := range threads {
		q.PushBack(th)
	}
	grown := cap(q.threads)

	// Act
	for i := 0; i < 250; i++ {
		q.PopFront()
	}

	// Assert
	if cap(q.threads) >= grown {
		t.Errorf("cap = %d, want less than %d", cap(q.threads), grown)
	}
	if got, want := q.IDs(), []int{251, 252, 253, 254, 255, 256}; !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}
