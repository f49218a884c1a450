package heap

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
)

const (
	// HeapStart is the virtual address the kernel heap is mapped at.
	HeapStart = 0x4444_4444_0000

	// HeapSize is the size of the kernel heap (100KB).
	HeapSize = 100 * 1024

	// minHeapSize is the smallest heap the free list can describe: one node.
	minHeapSize = 16
)

// Config describes a heap: where it lives, how big it is and which
// allocator manages it.
type Config struct {
	Start    uintptr
	Size     uintptr
	Strategy Strategy
}

// DefaultConfig returns the kernel heap geometry with DefaultStrategy.
func DefaultConfig() Config {
	return Config{
		Start:    HeapStart,
		Size:     HeapSize,
		Strategy: DefaultStrategy,
	}
}

// Validate checks that the geometry can back a heap.
func (c Config) Validate() error {
	if c.Start == format.NilAddr || !format.IsAligned(c.Start, format.WordAlignment) {
		return errors.Wrapf(ErrInvalidConfig, "start %#x must be non-zero and word aligned", c.Start)
	}
	if c.Size < minHeapSize {
		return errors.Wrapf(ErrInvalidConfig, "size %d below minimum %d", c.Size, minHeapSize)
	}
	if _, ok := buf.AddOverflowSafe(c.Start, c.Size); !ok {
		return errors.Wrapf(ErrInvalidConfig, "start %#x + size %d overflows", c.Start, c.Size)
	}
	switch c.Strategy {
	case StrategyBump, StrategyLinkedList, StrategyFixedSizeBlock:
	default:
		return errors.Wrapf(ErrUnknownStrategy, "strategy %d", int(c.Strategy))
	}
	return nil
}
