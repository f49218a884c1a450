package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinLock(t *testing.T) {
	var s SpinLock
	require.True(t, s.TryLock())
	assert.False(t, s.TryLock(), "held lock cannot be taken again")
	s.Unlock()
	assert.True(t, s.TryLock())
	s.Unlock()

	requireFatal(t, func() { s.Unlock() }, "unlock of a free lock")
}

func TestLocked_GuardReleases(t *testing.T) {
	l := NewLocked(NewBump())
	l.Init(newTestRegion(t, 1024))

	g := l.Lock()
	assert.False(t, l.mu.TryLock(), "guard holds the lock")
	_, err := g.Heap().Allocate(MustLayout(8, 8))
	require.NoError(t, err)
	g.Unlock()
	g.Unlock() // second release is a no-op

	require.True(t, l.mu.TryLock(), "lock is free after Unlock")
	l.mu.Unlock()

	requireFatal(t, func() { g.Heap() }, "use after release")
}

func TestLocked_WithReleasesOnPanic(t *testing.T) {
	l := NewLocked(NewLinkedList())
	l.Init(newTestRegion(t, 1024))

	assert.Panics(t, func() {
		l.With(func(*LinkedListAllocator) { panic("boom") })
	})
	require.True(t, l.mu.TryLock(), "panic inside With must not leave the lock held")
	l.mu.Unlock()
}

func TestLocked_FatalInsideAllocReleases(t *testing.T) {
	l := NewLocked(NewLinkedList())
	l.Init(newTestRegion(t, 1024))

	requireFatal(t, func() { l.Dealloc(testHeapStart+4, MustLayout(16, 8)) })

	_, err := l.Alloc(MustLayout(16, 8))
	require.NoError(t, err, "heap still usable after a caught contract violation")
}

// TestLocked_Concurrent hammers one heap from many goroutines and checks that
// no block is ever handed to two owners.
func TestLocked_Concurrent(t *testing.T) {
	const (
		workers = 8
		rounds  = 500
	)

	for name, h := range map[string]Heap{
		"linked-list":      NewLinkedList(),
		"fixed-size-block": NewFixedSizeBlock(),
		"bump":             NewBump(),
	} {
		t.Run(name, func(t *testing.T) {
			r := newTestRegion(t, 512*1024)
			l := NewLocked(h)
			l.Init(r)

			var wg sync.WaitGroup
			errs := make(chan string, workers)
			for w := range workers {
				wg.Add(1)
				go func(tag byte) {
					defer wg.Done()
					layout := MustLayout(uintptr(16+int(tag)*24), 8)
					for range rounds {
						ptr, err := l.Alloc(layout)
						if err != nil {
							continue
						}
						b, err := r.Slice(ptr, layout.Size)
						if err != nil {
							errs <- err.Error()
							return
						}
						for i := range b {
							b[i] = tag
						}
						for i := range b {
							if b[i] != tag {
								errs <- "block shared between goroutines"
								return
							}
						}
						l.Dealloc(ptr, layout)
					}
				}(byte(w + 1))
			}
			wg.Wait()
			close(errs)
			for e := range errs {
				t.Error(e)
			}

			s := l.Stats()
			assert.Zero(t, s.Live)
			assert.Equal(t, s.AllocCalls-s.OutOfMemory, s.FreeCalls)
		})
	}
}
