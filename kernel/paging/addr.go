package paging

import (
	"fmt"
	"iter"

	"github.com/joshuapare/kheap/internal/format"
)

const (
	// PageSize is the size of a 4KB page and frame.
	PageSize = format.PageSize

	// EntriesPerTable is the number of entries in one page table.
	EntriesPerTable = 512

	pageShift  = 12
	indexBits  = 9
	indexMask  = EntriesPerTable - 1
	offsetMask = PageSize - 1
)

// VirtAddr is a virtual address.
type VirtAddr uint64

// PageOffset returns the low 12 bits, the offset inside the page.
func (a VirtAddr) PageOffset() uint64 { return uint64(a) & offsetMask }

// P4Index returns the level-4 table index of the address (bits 39-47).
func (a VirtAddr) P4Index() int { return a.index(4) }

// P3Index returns the level-3 table index of the address (bits 30-38).
func (a VirtAddr) P3Index() int { return a.index(3) }

// P2Index returns the level-2 table index of the address (bits 21-29).
func (a VirtAddr) P2Index() int { return a.index(2) }

// P1Index returns the level-1 table index of the address (bits 12-20).
func (a VirtAddr) P1Index() int { return a.index(1) }

func (a VirtAddr) index(level int) int {
	return int(uint64(a)>>(pageShift+indexBits*(level-1))) & indexMask
}

func (a VirtAddr) String() string { return fmt.Sprintf("%#x", uint64(a)) }

// PhysAddr is a physical address.
type PhysAddr uint64

func (a PhysAddr) String() string { return fmt.Sprintf("%#x", uint64(a)) }

// Page is a 4KB-aligned virtual page.
type Page struct {
	start VirtAddr
}

// PageContaining returns the page that holds addr.
func PageContaining(addr VirtAddr) Page {
	return Page{start: VirtAddr(format.AlignDown(uintptr(addr), PageSize))}
}

// Start returns the first address of the page.
func (p Page) Start() VirtAddr { return p.start }

func (p Page) String() string { return "page " + p.start.String() }

// Frame is a 4KB-aligned physical frame.
type Frame struct {
	start PhysAddr
}

// FrameContaining returns the frame that holds addr.
func FrameContaining(addr PhysAddr) Frame {
	return Frame{start: PhysAddr(format.AlignDown(uintptr(addr), PageSize))}
}

// Start returns the first address of the frame.
func (f Frame) Start() PhysAddr { return f.start }

func (f Frame) String() string { return "frame " + f.start.String() }

// PageRange is the inclusive page range [First, Last].
type PageRange struct {
	First Page
	Last  Page
}

// PageRangeFor returns the pages covering [start, start+size). The last page
// is the one containing start+size-1, so a size that is not a multiple of
// PageSize still maps the partial tail page. size must be non-zero.
func PageRangeFor(start VirtAddr, size uint64) PageRange {
	end := start + VirtAddr(size) - 1
	return PageRange{First: PageContaining(start), Last: PageContaining(end)}
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int {
	if r.Last.start < r.First.start {
		return 0
	}
	return int((r.Last.start-r.First.start)/PageSize) + 1
}

// All yields every page in the range in ascending order.
func (r PageRange) All() iter.Seq[Page] {
	return func(yield func(Page) bool) {
		for i := range r.Len() {
			if !yield(Page{start: r.First.start + VirtAddr(i)*PageSize}) {
				return
			}
		}
	}
}
