package alloc

import "github.com/joshuapare/kheap/kernel/mem"

// Heap is allocator state: the bookkeeping of one strategy over one Region.
// Heap methods are not safe for concurrent use; put the state behind
// Locked to get an Allocator.
//
// Implementations:
//   - BumpAllocator: monotonic watermark, reclaims only when everything is freed
//   - LinkedListAllocator: first-fit free list threaded through the heap
//   - FixedSizeBlockAllocator: per-size-class lists over a linked-list fallback
type Heap interface {
	// Init hands the heap its region. It must be called exactly once,
	// before any allocation; a second call is fatal.
	Init(r *mem.Region)

	// Allocate returns the address of a block satisfying l, or
	// ErrOutOfMemory.
	Allocate(l Layout) (uintptr, error)

	// Deallocate returns the block at ptr, which must have been obtained
	// from Allocate with the same layout.
	Deallocate(ptr uintptr, l Layout)

	// Stats returns a snapshot of the heap counters.
	Stats() Stats
}

// Allocator is the allocation interface exposed to the rest of the kernel.
// Implementations serialize all callers.
type Allocator interface {
	// Alloc allocates a block for l. The only error is ErrOutOfMemory.
	Alloc(l Layout) (uintptr, error)

	// Dealloc frees the block at ptr. l must equal the layout passed to
	// Alloc; a mismatch corrupts the heap.
	Dealloc(ptr uintptr, l Layout)
}
