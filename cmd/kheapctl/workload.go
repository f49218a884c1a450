package main

import (
	"math/rand"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/kernel/alloc"
	"github.com/joshuapare/kheap/kernel/heap"
)

// block is a live allocation made by a workload.
type block struct {
	addr  uintptr
	size  uintptr
	align uintptr
}

func (b block) span() alloc.Span { return alloc.Span{Start: b.addr, Size: b.size} }

// workloadConfig drives runWorkload.
type workloadConfig struct {
	ops     int
	seed    int64
	maxSize int
}

// workloadResult summarizes a finished workload.
type workloadResult struct {
	Strategy string      `json:"strategy"`
	Ops      int         `json:"ops"`
	Seed     int64       `json:"seed"`
	Allocs   int         `json:"allocs"`
	Frees    int         `json:"frees"`
	Failed   int         `json:"out_of_memory"`
	Live     int         `json:"live"`
	Stats    alloc.Stats `json:"stats"`
}

// runWorkload performs cfg.ops random allocations and frees on h and checks,
// after every allocation, that the block lies inside the heap, honours its
// alignment and overlaps no other live block. Live blocks are left allocated
// so callers can inspect the heap afterwards.
func runWorkload(h *heap.Heap, cfg workloadConfig) (workloadResult, []block, error) {
	if cfg.maxSize < 1 {
		return workloadResult{}, nil, errors.Newf("max size must be at least 1, got %d", cfg.maxSize)
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	res := workloadResult{Strategy: h.Strategy().String(), Ops: cfg.ops, Seed: cfg.seed}
	var live []block

	for step := range cfg.ops {
		if len(live) > 0 && rng.Intn(5) < 2 {
			i := rng.Intn(len(live))
			b := live[i]
			h.Dealloc(b.addr, b.size, b.align)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			res.Frees++
			printVerbose("%6d free  %#x size=%d align=%d\n", step, b.addr, b.size, b.align)
			continue
		}

		b := block{
			size:  uintptr(1 + rng.Intn(cfg.maxSize)),
			align: uintptr(1) << rng.Intn(7),
		}
		addr, err := h.Alloc(b.size, b.align)
		if errors.Is(err, alloc.ErrOutOfMemory) {
			res.Failed++
			printVerbose("%6d alloc size=%d align=%d: out of memory\n", step, b.size, b.align)
			continue
		}
		if err != nil {
			return res, live, errors.Wrapf(err, "step %d", step)
		}
		b.addr = addr
		if err := checkBlock(h, live, b); err != nil {
			return res, live, errors.Wrapf(err, "step %d", step)
		}
		live = append(live, b)
		res.Allocs++
		printVerbose("%6d alloc %#x size=%d align=%d\n", step, b.addr, b.size, b.align)
	}

	res.Live = len(live)
	res.Stats = h.Stats()
	return res, live, nil
}

func checkBlock(h *heap.Heap, live []block, b block) error {
	if b.addr%b.align != 0 {
		return errors.AssertionFailedf("block %#x not aligned to %d", b.addr, b.align)
	}
	if !h.Region().Contains(b.addr, b.size) {
		return errors.AssertionFailedf("block [%#x, +%d) outside heap [%#x, %#x)",
			b.addr, b.size, h.Region().Start(), h.Region().End())
	}
	for _, o := range live {
		if b.span().Overlaps(o.span()) {
			return errors.AssertionFailedf("block [%#x, +%d) overlaps live [%#x, +%d)",
				b.addr, b.size, o.addr, o.size)
		}
	}
	return nil
}
