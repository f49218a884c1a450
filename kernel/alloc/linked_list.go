package alloc

import (
	"log/slog"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/kernel/mem"
)

// Free-list node layout, written at the first byte of every free region:
//
//	+0  size  (word) length of the free region in bytes, node included
//	+8  next  (word) address of the next free node, or format.NilAddr
const (
	nodeSizeOff = 0
	nodeNextOff = format.WordSize

	// nodeSize is the smallest region that can be put on the list.
	nodeSize = 2 * format.WordSize

	// nodeAlign is the alignment every node address must satisfy.
	nodeAlign = format.WordAlignment
)

// LinkedListAllocator keeps free memory as a singly linked list of regions
// threaded through the free bytes themselves.
//
//   - Allocation is first fit: the first region that can hold the aligned
//     request is unlinked, and the tail past the block goes back on the list.
//   - Free pushes the block onto the front of the list (LIFO).
//   - Adjacent free regions are never merged, so long runs fragment.
//
// Every block handed out is padded to at least one node and aligned to a
// word, so that freeing it can always turn it back into a node.
type LinkedListAllocator struct {
	region *mem.Region

	// head is the sentinel's next pointer: the first free node, or NilAddr.
	head uintptr

	splits int

	counters
}

// NewLinkedList returns an uninitialized linked-list allocator with an
// empty free list.
func NewLinkedList() *LinkedListAllocator {
	return &LinkedListAllocator{}
}

// Init installs the whole of r as a single free region. Calling it twice is
// fatal.
func (a *LinkedListAllocator) Init(r *mem.Region) {
	if r == nil {
		fatalf("linked list: Init with nil region")
	}
	if a.region != nil {
		fatalf("linked list: heap already initialized at %#x", a.region.Start())
	}
	a.region = r
	a.addFreeRegion(r.Start(), r.Size())
}

// addFreeRegion writes a node for [addr, addr+size) and pushes it on the
// front of the list. The region must be node-aligned, at least one node
// long, and inside the heap; anything else is fatal.
func (a *LinkedListAllocator) addFreeRegion(addr, size uintptr) {
	if format.AlignUp(addr, nodeAlign) != addr {
		fatalf("linked list: free region %#x is not %d-byte aligned", addr, nodeAlign)
	}
	if size < nodeSize {
		fatalf("linked list: free region %#x of %d bytes cannot hold a %d-byte node", addr, size, nodeSize)
	}
	if !a.region.Contains(addr, size) {
		fatalf("linked list: free region [%#x, +%d) outside heap [%#x, %#x)",
			addr, size, a.region.Start(), a.region.End())
	}

	a.region.WriteWord(addr+nodeSizeOff, size)
	a.region.WriteWord(addr+nodeNextOff, a.head)
	a.head = addr
}

// findRegion scans the list for the first region that can hold size bytes
// at align, unlinks it, and returns the node address, its size, and where
// the allocation starts inside it.
func (a *LinkedListAllocator) findRegion(size, align uintptr) (node, nodeLen, allocStart uintptr, ok bool) {
	prev := uintptr(format.NilAddr)
	for cur := a.head; cur != format.NilAddr; {
		curLen := a.region.ReadWord(cur + nodeSizeOff)
		next := a.region.ReadWord(cur + nodeNextOff)

		if start, fits := allocFromRegion(cur, curLen, size, align); fits {
			if prev == format.NilAddr {
				a.head = next
			} else {
				a.region.WriteWord(prev+nodeNextOff, next)
			}
			return cur, curLen, start, true
		}
		prev, cur = cur, next
	}
	return 0, 0, 0, false
}

// allocFromRegion decides whether the region [start, start+regionLen) can
// serve size bytes at align. A region whose leftover tail would be non-empty
// but too short for a node is rejected: the tail could never be put back on
// the list, so the region is kept whole for a larger request instead.
func allocFromRegion(start, regionLen, size, align uintptr) (uintptr, bool) {
	allocStart, ok := format.AlignUpChecked(start, align)
	if !ok {
		return 0, false
	}
	allocEnd, ok := buf.AddOverflowSafe(allocStart, size)
	if !ok {
		return 0, false
	}
	regionEnd := start + regionLen
	if allocEnd > regionEnd {
		return 0, false
	}
	excess := regionEnd - allocEnd
	if excess > 0 && excess < nodeSize {
		return 0, false
	}
	return allocStart, true
}

// sizeAlign adjusts l so the block can later be reinterpreted as a node:
// alignment at least a word, size padded to the alignment and to at least
// one node. Allocate and Deallocate must apply exactly the same rule.
func sizeAlign(l Layout) (size, align uintptr, ok bool) {
	padded, ok := Layout{Size: l.Size, Align: max(l.Align, nodeAlign)}.PadToAlign()
	if !ok {
		return 0, 0, false
	}
	return max(padded.Size, nodeSize), padded.Align, true
}

// Allocate serves l first fit. The bytes between the region start and the
// aligned block start stay with the block and are not reclaimed.
func (a *LinkedListAllocator) Allocate(l Layout) (uintptr, error) {
	a.allocCalls++

	size, align, ok := sizeAlign(l)
	if !ok {
		return 0, a.fail(l)
	}
	node, nodeLen, allocStart, found := a.findRegion(size, align)
	if !found {
		return 0, a.fail(l)
	}

	allocEnd := allocStart + size
	if excess := node + nodeLen - allocEnd; excess > 0 {
		a.addFreeRegion(allocEnd, excess)
		a.splits++
	}
	a.allocated(l.Size)
	return allocStart, nil
}

// Deallocate pushes the block back on the list as a free region.
func (a *LinkedListAllocator) Deallocate(ptr uintptr, l Layout) {
	if a.region == nil {
		fatalf("linked list: dealloc of %#x before Init", ptr)
	}
	size, _, ok := sizeAlign(l)
	if !ok {
		fatalf("linked list: dealloc of %#x with unpaddable layout %+v", ptr, l)
	}
	a.addFreeRegion(ptr, size)
	a.freed(l.Size)
}

// FreeRegions walks the list from the head and returns every free region
// in list order.
func (a *LinkedListAllocator) FreeRegions() []Span {
	var spans []Span
	a.walk(func(addr, size uintptr) {
		spans = append(spans, Span{Start: addr, Size: size})
	})
	return spans
}

// FreeBytes returns the total size of all free regions.
func (a *LinkedListAllocator) FreeBytes() uintptr {
	var total uintptr
	a.walk(func(_, size uintptr) { total += size })
	return total
}

// walk visits every node. A list longer than the heap could hold means a
// cycle, which is fatal.
func (a *LinkedListAllocator) walk(fn func(addr, size uintptr)) {
	if a.region == nil {
		return
	}
	limit := a.region.Size()/nodeSize + 1
	var steps uintptr
	for cur := a.head; cur != format.NilAddr; cur = a.region.ReadWord(cur + nodeNextOff) {
		if steps++; steps > limit {
			fatalf("linked list: free list longer than %d nodes, cycle at %#x", limit, cur)
		}
		fn(cur, a.region.ReadWord(cur+nodeSizeOff))
	}
}

// Stats returns the counters plus a walk of the free list.
func (a *LinkedListAllocator) Stats() Stats {
	s := Stats{SplitCount: a.splits}
	if a.region != nil {
		s.HeapStart, s.HeapEnd = a.region.Start(), a.region.End()
	}
	a.walk(func(_, size uintptr) {
		s.FreeRegions++
		s.FreeBytes += int64(size)
	})
	a.fill(&s)
	return s
}

func (a *LinkedListAllocator) fail(l Layout) error {
	a.outOfMemory++
	if logger.Enabled(slog.LevelDebug) {
		logger.Debug("linked list: out of memory",
			"size", l.Size, "align", l.Align,
			"free_bytes", a.FreeBytes(), "free_regions", len(a.FreeRegions()))
	}
	return ErrOutOfMemory
}

var _ Heap = (*LinkedListAllocator)(nil)
