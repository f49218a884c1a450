package alloc

import (
	"log/slog"

	"github.com/joshuapare/kheap/internal/format"
	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/kernel/mem"
)

// Class free-list node layout, written at the first byte of a free block:
//
//	+0  next  (word) address of the next free block of the class, or NilAddr
const classNodeSize = format.WordSize

// FixedSizeBlockAllocator serves small requests from per-class free lists
// and everything else from a LinkedListAllocator fallback.
//
//   - A request maps to the smallest class >= max(size, align).
//   - A non-empty class list is popped in O(1).
//   - An empty class list is refilled with one block carved from the
//     fallback heap at exactly the class size and alignment.
//   - A freed class block is pushed on its class list in O(1).
//
// Class memory never returns to the fallback heap: a block carved for a
// class serves that class for the rest of the heap's life.
type FixedSizeBlockAllocator struct {
	listHeads [NumClasses]uintptr
	fallback  *LinkedListAllocator
	region    *mem.Region

	hits      int
	refills   int
	oversized int

	counters
}

// NewFixedSizeBlock returns an uninitialized allocator with empty class
// lists and an empty fallback heap.
func NewFixedSizeBlock() *FixedSizeBlockAllocator {
	return &FixedSizeBlockAllocator{fallback: NewLinkedList()}
}

// Init gives the whole of r to the fallback heap. Calling it twice is fatal.
func (a *FixedSizeBlockAllocator) Init(r *mem.Region) {
	if r == nil {
		fatalf("fixed size block: Init with nil region")
	}
	if a.region != nil {
		fatalf("fixed size block: heap already initialized at %#x", a.region.Start())
	}
	a.region = r
	a.fallback.Init(r)
}

// Allocate pops a class block, refills the class from the fallback heap,
// or sends an oversized request straight to the fallback heap.
func (a *FixedSizeBlockAllocator) Allocate(l Layout) (uintptr, error) {
	a.allocCalls++

	idx, ok := classFor(l)
	if !ok {
		a.oversized++
		ptr, err := a.fallback.Allocate(l)
		if err != nil {
			a.outOfMemory++
			return 0, err
		}
		a.allocated(l.Size)
		return ptr, nil
	}

	if head := a.listHeads[idx]; head != format.NilAddr {
		a.listHeads[idx] = a.region.ReadWord(head)
		a.hits++
		a.allocated(l.Size)
		return head, nil
	}

	blockSize := BlockSizes[idx]
	ptr, err := a.fallback.Allocate(Layout{Size: blockSize, Align: blockSize})
	if err != nil {
		a.outOfMemory++
		if logger.Enabled(slog.LevelDebug) {
			logger.Debug("fixed size block: class refill failed",
				"class", ClassName(idx), "size", l.Size, "align", l.Align)
		}
		return 0, err
	}
	a.refills++
	a.allocated(l.Size)
	return ptr, nil
}

// Deallocate pushes a class block on its list, or returns an oversized
// block to the fallback heap.
func (a *FixedSizeBlockAllocator) Deallocate(ptr uintptr, l Layout) {
	if a.region == nil {
		fatalf("fixed size block: dealloc of %#x before Init", ptr)
	}

	idx, ok := classFor(l)
	if !ok {
		a.fallback.Deallocate(ptr, l)
		a.freed(l.Size)
		return
	}

	blockSize := BlockSizes[idx]
	if classNodeSize > blockSize || format.WordAlignment > blockSize {
		fatalf("fixed size block: class %s cannot hold a list node", ClassName(idx))
	}
	if !format.IsAligned(ptr, blockSize) || !a.region.Contains(ptr, blockSize) {
		fatalf("fixed size block: dealloc of %#x is not a %s block of this heap", ptr, ClassName(idx))
	}

	a.region.WriteWord(ptr, a.listHeads[idx])
	a.listHeads[idx] = ptr
	a.freed(l.Size)
}

// FreeBlockCounts returns how many free blocks each class list holds.
func (a *FixedSizeBlockAllocator) FreeBlockCounts() [NumClasses]int {
	var counts [NumClasses]int
	for i := range a.listHeads {
		a.walkClass(i, func(uintptr) { counts[i]++ })
	}
	return counts
}

// FreeBlocks returns the addresses on class i's list, head first.
func (a *FixedSizeBlockAllocator) FreeBlocks(i int) []uintptr {
	var out []uintptr
	a.walkClass(i, func(addr uintptr) { out = append(out, addr) })
	return out
}

// Fallback exposes the fallback heap for inspection.
func (a *FixedSizeBlockAllocator) Fallback() *LinkedListAllocator {
	return a.fallback
}

func (a *FixedSizeBlockAllocator) walkClass(i int, fn func(addr uintptr)) {
	if a.region == nil {
		return
	}
	limit := a.region.Size()/BlockSizes[i] + 1
	var steps uintptr
	for cur := a.listHeads[i]; cur != format.NilAddr; cur = a.region.ReadWord(cur) {
		if steps++; steps > limit {
			fatalf("fixed size block: class %s list longer than %d blocks", ClassName(i), limit)
		}
		fn(cur)
	}
}

// Stats returns the class counters together with the fallback heap's free
// list figures.
func (a *FixedSizeBlockAllocator) Stats() Stats {
	fb := a.fallback.Stats()
	s := Stats{
		HeapStart:    fb.HeapStart,
		HeapEnd:      fb.HeapEnd,
		SplitCount:   fb.SplitCount,
		FreeRegions:  fb.FreeRegions,
		FreeBytes:    fb.FreeBytes,
		ClassHits:    a.hits,
		ClassRefills: a.refills,
		FallbackUsed: a.oversized,
		ClassFree:    a.FreeBlockCounts(),
	}
	a.fill(&s)
	return s
}

var _ Heap = (*FixedSizeBlockAllocator)(nil)
