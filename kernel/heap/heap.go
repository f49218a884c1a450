package heap

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/kernel/alloc"
	"github.com/joshuapare/kheap/kernel/mem"
	"github.com/joshuapare/kheap/kernel/paging"
)

// lockedHeap is the strategy-independent view of an alloc.Locked.
type lockedHeap interface {
	alloc.Allocator
	Init(r *mem.Region)
	Stats() alloc.Stats
}

// Heap is a mapped, initialized heap behind a spin lock.
type Heap struct {
	cfg     Config
	region  *mem.Region
	locked  lockedHeap
	inspect func(fn func(alloc.Heap))
}

// New maps every page of cfg's range through mapper, with one frame per page
// from frames, and initializes cfg.Strategy over the mapped memory.
//
// The page range is inclusive of the page holding the last heap byte. A
// missing frame fails with paging.ErrFrameAllocationFailed. Pages mapped
// before the failure stay mapped.
func New(cfg Config, mapper paging.Mapper, frames paging.FrameAllocator) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pages := paging.PageRangeFor(paging.VirtAddr(cfg.Start), uint64(cfg.Size))
	mapped := 0
	for page := range pages.All() {
		frame, ok := frames.AllocateFrame()
		if !ok {
			logger.Warn("heap: frame allocation failed",
				"page", page.String(), "mapped", mapped, "pages", pages.Len())
			return nil, errors.Wrapf(paging.ErrFrameAllocationFailed, "heap: %s", page)
		}
		if err := mapper.MapTo(page, frame, paging.FlagPresent|paging.FlagWritable, frames); err != nil {
			return nil, errors.Wrapf(err, "heap: map %s", page)
		}
		mapped++
	}
	logger.Info("heap: mapped",
		"start", pages.First.Start().String(),
		"end", pages.Last.Start().String(),
		"pages", pages.Len())

	region, err := mapper.Region(cfg.Start, cfg.Size)
	if err != nil {
		return nil, errors.Wrap(err, "heap: view mapped range")
	}

	h := &Heap{cfg: cfg, region: region}
	h.locked, h.inspect = newLocked(cfg.Strategy)
	h.locked.Init(region)

	logger.Info("heap: initialized",
		"strategy", cfg.Strategy.String(),
		"start", region.Start(),
		"size", region.Size())
	return h, nil
}

// newLocked builds the locked allocator for s, plus a function that runs a
// callback on the allocator state under its lock.
func newLocked(s Strategy) (lockedHeap, func(func(alloc.Heap))) {
	switch s {
	case StrategyBump:
		l := alloc.NewLocked(alloc.NewBump())
		return l, func(fn func(alloc.Heap)) { l.With(func(h *alloc.BumpAllocator) { fn(h) }) }
	case StrategyLinkedList:
		l := alloc.NewLocked(alloc.NewLinkedList())
		return l, func(fn func(alloc.Heap)) { l.With(func(h *alloc.LinkedListAllocator) { fn(h) }) }
	default:
		l := alloc.NewLocked(alloc.NewFixedSizeBlock())
		return l, func(fn func(alloc.Heap)) { l.With(func(h *alloc.FixedSizeBlockAllocator) { fn(h) }) }
	}
}

// Alloc returns a block of size bytes aligned to align. align must be a
// power of two (ErrInvalidLayout otherwise); the only other error is
// alloc.ErrOutOfMemory.
func (h *Heap) Alloc(size, align uintptr) (uintptr, error) {
	l, err := alloc.NewLayout(size, align)
	if err != nil {
		return 0, err
	}
	return h.locked.Alloc(l)
}

// Dealloc frees the block at addr. size and align must match the Alloc call
// that returned it.
func (h *Heap) Dealloc(addr, size, align uintptr) {
	l, err := alloc.NewLayout(size, align)
	if err != nil {
		fatalf("dealloc of %#x with %v", addr, err)
	}
	h.locked.Dealloc(addr, l)
}

// Strategy returns the allocator strategy.
func (h *Heap) Strategy() Strategy { return h.cfg.Strategy }

// Config returns the configuration the heap was built with.
func (h *Heap) Config() Config { return h.cfg }

// Region returns the memory the heap manages.
func (h *Heap) Region() *mem.Region { return h.region }

// Stats returns a snapshot of the allocator counters.
func (h *Heap) Stats() alloc.Stats { return h.locked.Stats() }

// Inspect runs fn on the allocator state with the heap locked. fn must not
// allocate from h. Type-switch on the argument to reach strategy-specific
// diagnostics such as free lists.
func (h *Heap) Inspect(fn func(alloc.Heap)) { h.inspect(fn) }
