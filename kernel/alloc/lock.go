package alloc

import (
	"sync/atomic"

	"github.com/joshuapare/kheap/kernel/mem"
)

// SpinLock is a busy-waiting mutual exclusion lock. It never parks the
// caller; there is nothing to yield to in the environment the heap models.
//
// A goroutine that tries to lock a SpinLock it already holds spins forever.
// Allocation must never be reachable from code that can run while the same
// heap's lock is held (an interrupt handler, a log hook, a callback).
type SpinLock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (s *SpinLock) TryLock() bool {
	return s.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking a free lock is fatal.
func (s *SpinLock) Unlock() {
	if !s.held.CompareAndSwap(true, false) {
		fatalf("unlock of unlocked SpinLock")
	}
}

// Locked wraps heap state H behind a SpinLock and serializes every
// operation on it. It is the only concurrency primitive of the heap.
type Locked[H Heap] struct {
	mu    SpinLock
	inner H
}

// NewLocked returns inner wrapped in a lock.
func NewLocked[H Heap](inner H) *Locked[H] {
	return &Locked[H]{inner: inner}
}

// Guard is exclusive access to the state of a Locked. Release it with
// Unlock, normally via defer.
type Guard[H Heap] struct {
	l        *Locked[H]
	released bool
}

// Lock acquires exclusive access.
//
//	g := l.Lock()
//	defer g.Unlock()
//	g.Heap().Allocate(layout)
func (l *Locked[H]) Lock() Guard[H] {
	l.mu.Lock()
	return Guard[H]{l: l}
}

// Heap returns the guarded state. It must not be retained past Unlock.
func (g *Guard[H]) Heap() H {
	if g.released {
		fatalf("heap access through a released guard")
	}
	return g.l.inner
}

// Unlock releases the guard. Further calls are no-ops.
func (g *Guard[H]) Unlock() {
	if g.released {
		return
	}
	g.released = true
	g.l.mu.Unlock()
}

// With runs fn with exclusive access and releases the lock on every exit
// path, including a panic inside fn.
func (l *Locked[H]) With(fn func(h H)) {
	g := l.Lock()
	defer g.Unlock()
	fn(g.Heap())
}

// Init initializes the wrapped heap over r.
func (l *Locked[H]) Init(r *mem.Region) {
	l.With(func(h H) { h.Init(r) })
}

// Alloc allocates under the lock.
func (l *Locked[H]) Alloc(layout Layout) (uintptr, error) {
	g := l.Lock()
	defer g.Unlock()
	return g.Heap().Allocate(layout)
}

// Dealloc frees under the lock.
func (l *Locked[H]) Dealloc(ptr uintptr, layout Layout) {
	g := l.Lock()
	defer g.Unlock()
	g.Heap().Deallocate(ptr, layout)
}

// Stats returns a consistent snapshot of the heap counters.
func (l *Locked[H]) Stats() Stats {
	g := l.Lock()
	defer g.Unlock()
	return g.Heap().Stats()
}

var _ Allocator = (*Locked[*BumpAllocator])(nil)
