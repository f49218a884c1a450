package alloc

import (
	"log/slog"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/kernel/mem"
)

// BumpAllocator hands out memory by advancing a watermark. It keeps no
// per-allocation metadata, only the number of outstanding allocations.
//
// Key characteristics:
//   - O(1) allocation: align the watermark, bump it past the block
//   - O(1) deallocation: decrement the live count
//   - Freeing the most recent block rolls the watermark back by its size
//   - When the live count reaches zero the whole heap is reclaimed
//
// Any other free leaks its bytes until every allocation is gone. This is
// the strategy's known trade-off, not a bug.
type BumpAllocator struct {
	region *mem.Region

	heapStart uintptr
	heapEnd   uintptr

	// next is the first address not yet handed out.
	// Invariant: heapStart <= next <= heapEnd.
	next uintptr

	// allocations counts outstanding blocks.
	allocations int

	counters
}

// NewBump returns an uninitialized bump allocator. Every allocation fails
// until Init is called.
func NewBump() *BumpAllocator {
	return &BumpAllocator{}
}

// Init sets the heap bounds to r. Calling it twice is fatal.
func (ba *BumpAllocator) Init(r *mem.Region) {
	if r == nil {
		fatalf("bump: Init with nil region")
	}
	if ba.region != nil {
		fatalf("bump: heap already initialized at %#x", ba.heapStart)
	}
	ba.region = r
	ba.heapStart = r.Start()
	ba.heapEnd = r.End()
	ba.next = r.Start()
	ba.allocations = 0
}

// Allocate aligns the watermark up to l.Align and bumps it by l.Size.
func (ba *BumpAllocator) Allocate(l Layout) (uintptr, error) {
	ba.allocCalls++
	if ba.region == nil {
		ba.outOfMemory++
		return 0, ErrOutOfMemory
	}

	allocStart, ok := format.AlignUpChecked(ba.next, l.Align)
	if !ok {
		return 0, ba.fail(l)
	}
	allocEnd, ok := buf.AddOverflowSafe(allocStart, l.Size)
	if !ok || allocEnd > ba.heapEnd {
		return 0, ba.fail(l)
	}

	ba.next = allocEnd
	ba.allocations++
	ba.allocated(l.Size)
	return allocStart, nil
}

// Deallocate drops the live count. The watermark moves back only when ptr
// is the last block handed out, and resets to the heap start once nothing
// is live.
func (ba *BumpAllocator) Deallocate(ptr uintptr, l Layout) {
	if ba.allocations == 0 {
		fatalf("bump: dealloc of %#x with no live allocations", ptr)
	}
	if !ba.region.Contains(ptr, l.Size) {
		fatalf("bump: dealloc of [%#x, +%d) outside heap [%#x, %#x)", ptr, l.Size, ba.heapStart, ba.heapEnd)
	}

	ba.allocations--
	ba.freed(l.Size)

	if ba.next == ptr+l.Size {
		ba.next -= l.Size
	}
	if ba.allocations == 0 {
		ba.next = ba.heapStart
	}
}

// Stats returns the bump counters; BumpNext is the current watermark.
func (ba *BumpAllocator) Stats() Stats {
	s := Stats{
		HeapStart: ba.heapStart,
		HeapEnd:   ba.heapEnd,
		BumpNext:  ba.next,
	}
	ba.fill(&s)
	return s
}

// Next returns the current watermark.
func (ba *BumpAllocator) Next() uintptr { return ba.next }

// Allocations returns the number of outstanding blocks.
func (ba *BumpAllocator) Allocations() int { return ba.allocations }

func (ba *BumpAllocator) fail(l Layout) error {
	ba.outOfMemory++
	if logger.Enabled(slog.LevelDebug) {
		logger.Debug("bump: out of memory",
			"size", l.Size, "align", l.Align,
			"next", ba.next, "remaining", ba.heapEnd-ba.next)
	}
	return ErrOutOfMemory
}

var _ Heap = (*BumpAllocator)(nil)
