package heap

import (
	"sync/atomic"

	"github.com/joshuapare/kheap/kernel/paging"
)

// global is the kernel heap. It is set once by InitHeap.
var global atomic.Pointer[Heap]

// InitHeap maps and initializes the kernel heap at HeapStart with
// DefaultConfig. It must run once, before the first Alloc. A second call
// is fatal; a failed call may be retried.
func InitHeap(mapper paging.Mapper, frames paging.FrameAllocator) error {
	if h := global.Load(); h != nil {
		fatalf("InitHeap called twice (heap already at %#x)", h.cfg.Start)
	}
	h, err := New(DefaultConfig(), mapper, frames)
	if err != nil {
		return err
	}
	if !global.CompareAndSwap(nil, h) {
		fatalf("InitHeap raced with another InitHeap")
	}
	return nil
}

// Default returns the kernel heap, or nil before InitHeap.
func Default() *Heap { return global.Load() }

// Alloc allocates from the kernel heap. Before InitHeap it returns
// ErrNotInitialized.
func Alloc(size, align uintptr) (uintptr, error) {
	h := global.Load()
	if h == nil {
		return 0, ErrNotInitialized
	}
	return h.Alloc(size, align)
}

// Dealloc frees a block of the kernel heap. Nothing can have been
// allocated before InitHeap, so a Dealloc before it is fatal.
func Dealloc(addr, size, align uintptr) {
	h := global.Load()
	if h == nil {
		fatalf("dealloc of %#x before InitHeap", addr)
	}
	h.Dealloc(addr, size, align)
}
