package heap

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/kernel/paging"
)

// simulatedPhysBase is where the usable physical memory of a simulated
// machine starts, past the legacy low megabyte.
const simulatedPhysBase = 0x10_0000

// Simulated is a heap mapped into its own AddressSpace with frames from a
// synthetic boot memory map. It is what tools and tests run heaps on.
type Simulated struct {
	*Heap
	Space  *paging.AddressSpace
	Frames *paging.BootFrameAllocator
}

// SimulatedMemoryMap returns a boot memory map with exactly enough usable
// frames to map size bytes at start, including every page table the walk
// can need.
func SimulatedMemoryMap(start, size uintptr) []paging.MemoryRegion {
	pages := paging.PageRangeFor(paging.VirtAddr(start), uint64(size)).Len()
	// A P1 table covers 512 pages; the range may straddle one more table
	// at each level.
	tables := 3 * (pages/paging.EntriesPerTable + 2)
	end := paging.PhysAddr(simulatedPhysBase + (pages+tables)*paging.PageSize)
	return []paging.MemoryRegion{
		{Start: 0, End: simulatedPhysBase, Usable: false},
		{Start: simulatedPhysBase, End: end, Usable: true},
	}
}

// NewSimulated builds a heap for cfg in a fresh address space.
func NewSimulated(cfg Config) (*Simulated, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := paging.PageContaining(paging.VirtAddr(cfg.Start)).Start()
	window := uint64(cfg.Start-uintptr(base)) + uint64(cfg.Size)
	space, err := paging.NewAddressSpace(base, window)
	if err != nil {
		return nil, errors.Wrap(err, "heap: simulated address space")
	}

	frames := paging.NewBootFrameAllocator(SimulatedMemoryMap(cfg.Start, cfg.Size))
	h, err := New(cfg, space, frames)
	if err != nil {
		_ = space.Close()
		return nil, err
	}
	return &Simulated{Heap: h, Space: space, Frames: frames}, nil
}

// Close releases the address space. The heap must not be used afterwards.
func (s *Simulated) Close() error {
	return s.Space.Close()
}
