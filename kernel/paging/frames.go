package paging

import "github.com/joshuapare/kheap/internal/format"

// FrameAllocator hands out unused physical frames. ok is false when none
// are left.
type FrameAllocator interface {
	AllocateFrame() (frame Frame, ok bool)
}

// MemoryRegion is one entry of the boot memory map: the physical range
// [Start, End) and whether it is free for use.
type MemoryRegion struct {
	Start  PhysAddr
	End    PhysAddr
	Usable bool
}

// BootFrameAllocator returns the frames of the usable regions of a boot
// memory map, lowest first. Frames are never returned to it.
type BootFrameAllocator struct {
	regions []MemoryRegion
	region  int      // index of the region being consumed
	next    PhysAddr // next candidate frame start in that region
	handed  int
}

// NewBootFrameAllocator builds an allocator over memoryMap. Unusable
// entries are skipped and partial frames at region edges are ignored.
func NewBootFrameAllocator(memoryMap []MemoryRegion) *BootFrameAllocator {
	var usable []MemoryRegion
	for _, r := range memoryMap {
		if r.Usable && r.End > r.Start {
			usable = append(usable, r)
		}
	}
	fa := &BootFrameAllocator{regions: usable}
	if len(usable) > 0 {
		fa.next = alignFrameUp(usable[0].Start)
	}
	return fa
}

// AllocateFrame returns the next usable frame.
func (fa *BootFrameAllocator) AllocateFrame() (Frame, bool) {
	for fa.region < len(fa.regions) {
		r := fa.regions[fa.region]
		if fa.next >= r.Start && fa.next+PageSize <= r.End && fa.next+PageSize > fa.next {
			f := Frame{start: fa.next}
			fa.next += PageSize
			fa.handed++
			return f, true
		}
		fa.region++
		if fa.region < len(fa.regions) {
			fa.next = alignFrameUp(fa.regions[fa.region].Start)
		}
	}
	return Frame{}, false
}

// Allocated returns how many frames have been handed out.
func (fa *BootFrameAllocator) Allocated() int { return fa.handed }

// Remaining returns how many frames are still available.
func (fa *BootFrameAllocator) Remaining() int {
	n := 0
	for i := fa.region; i < len(fa.regions); i++ {
		r := fa.regions[i]
		start := alignFrameUp(r.Start)
		if i == fa.region {
			start = fa.next
		}
		if r.End > start {
			n += int((r.End - start) / PageSize)
		}
	}
	return n
}

func alignFrameUp(a PhysAddr) PhysAddr {
	return PhysAddr(format.AlignPage(uintptr(a)))
}

// EmptyFrameAllocator never has a frame to give.
type EmptyFrameAllocator struct{}

// AllocateFrame always reports false.
func (EmptyFrameAllocator) AllocateFrame() (Frame, bool) { return Frame{}, false }
