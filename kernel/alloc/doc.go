// Package alloc provides the heap allocators of the kernel: three strategies
// that manage one fixed, pre-mapped address range using only the bytes of
// that range for their bookkeeping.
//
// # Overview
//
// There is no operating system underneath: no malloc, no page fault handler
// to grow the heap. The paging code maps a range once at boot, hands it over
// as a mem.Region, and from then on every dynamic allocation is carved out of
// that region by one of the allocators here.
//
// Free-list records live inside the free memory they describe. A "pointer"
// is a virtual address in the region; every record access goes through
// mem.Region, which translates it to an offset and bounds-checks it.
//
// # Strategies
//
// BumpAllocator: monotonic watermark
//
//   - O(1) alloc and free, no per-block metadata
//   - Reclaims only the most recent block, or everything once all blocks are freed
//
// LinkedListAllocator: first-fit free list
//
//   - Free regions threaded through the heap as {size, next} nodes (16 bytes)
//   - Splits regions on allocation, pushes freed blocks LIFO
//   - No coalescing of adjacent free regions
//
// FixedSizeBlockAllocator: size classes over a fallback
//
//   - Nine classes, 8 to 2048 bytes, one LIFO list per class
//   - Empty classes are refilled one block at a time from a LinkedListAllocator
//   - Requests larger than 2048 bytes go straight to the fallback
//
// # Usage Example
//
//	region, err := mem.NewRegion(base, mapped)
//	if err != nil {
//	    return err
//	}
//
//	heap := alloc.NewLocked(alloc.NewFixedSizeBlock())
//	heap.Init(region)
//
//	layout := alloc.MustLayout(100, 8)
//	ptr, err := heap.Alloc(layout)
//	if errors.Is(err, alloc.ErrOutOfMemory) {
//	    // no region large enough
//	}
//
//	// Later, free with the same layout
//	heap.Dealloc(ptr, layout)
//
// # Errors
//
// Out of memory is the only recoverable failure. Broken caller contracts
// (initializing twice, registering a region that cannot hold a node,
// freeing with a different layout than the allocation used) panic with an
// assertion failure from github.com/cockroachdb/errors, because carrying
// on would silently corrupt the free lists.
//
// # Thread Safety
//
// Heap implementations are not safe for concurrent use. Locked wraps one in
// a spin lock held for the whole of every Alloc and Dealloc. The lock is not
// reentrant: allocating from code that runs while the same heap is locked
// (an interrupt handler, for one) spins forever.
//
// # Related Packages
//
//   - github.com/joshuapare/kheap/kernel/mem: the Region the allocators work on
//   - github.com/joshuapare/kheap/kernel/heap: boot-time setup and the global heap
//   - github.com/joshuapare/kheap/internal/format: alignment and word encoding
package alloc
