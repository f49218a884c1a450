package paging

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/internal/format"
	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/internal/mmfile"
	"github.com/joshuapare/kheap/kernel/mem"
)

// Mapper installs and resolves page translations.
type Mapper interface {
	// MapTo maps page to frame with flags. Page tables that do not exist
	// yet are created with frames taken from frames.
	MapTo(page Page, frame Frame, flags PageFlags, frames FrameAllocator) error

	// Translate returns the physical address addr maps to. ok is false when
	// any level of the walk has no present entry.
	Translate(addr VirtAddr) (phys PhysAddr, ok bool)

	// Region returns the memory behind [start, start+size) once every page
	// of it is mapped present and writable.
	Region(start, size uintptr) (*mem.Region, error)
}

type entry struct {
	frame Frame
	flags PageFlags
	next  *table // set on P4, P3 and P2 entries once the lower table exists
}

type table struct {
	frame   Frame
	entries [EntriesPerTable]entry
}

// AddressSpace is a Mapper over a fixed virtual window. The window is
// backed by reserved host memory; a page becomes readable and writable
// only after it is mapped with FlagPresent|FlagWritable.
type AddressSpace struct {
	mu     sync.Mutex
	base   VirtAddr
	data   []byte
	p4     *table
	tables int
	mapped int
}

// NewAddressSpace reserves a window of size bytes at base. base must be page
// aligned; size is rounded up to whole pages.
func NewAddressSpace(base VirtAddr, size uint64) (*AddressSpace, error) {
	if base == 0 || base.PageOffset() != 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "window base %s is not a non-zero page boundary", base)
	}
	if size == 0 {
		return nil, errors.Wrap(ErrOutOfRange, "empty window")
	}
	rounded := uint64(format.AlignPage(uintptr(size)))
	if rounded < size {
		return nil, errors.Wrapf(ErrOutOfRange, "window size %d overflows when rounded to pages", size)
	}
	size = rounded
	if uint64(base)+size < uint64(base) {
		return nil, errors.Wrapf(ErrOutOfRange, "window %s + %d overflows", base, size)
	}

	data, err := mmfile.Reserve(int(size))
	if err != nil {
		return nil, errors.Wrap(err, "paging: reserve window")
	}
	return &AddressSpace{base: base, data: data, p4: &table{}}, nil
}

// Base returns the first address of the window.
func (as *AddressSpace) Base() VirtAddr { return as.base }

// Size returns the window size in bytes.
func (as *AddressSpace) Size() uint64 { return uint64(len(as.data)) }

// MapTo implements Mapper.
func (as *AddressSpace) MapTo(page Page, frame Frame, flags PageFlags, frames FrameAllocator) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.data == nil {
		return ErrClosed
	}
	off, ok := as.offset(page.start)
	if !ok {
		return errors.Wrapf(ErrOutOfRange, "%s outside window [%s, %s)", page, as.base, as.base+VirtAddr(len(as.data)))
	}

	e, err := as.leaf(page.start, frames)
	if err != nil {
		return errors.Wrapf(err, "map %s", page)
	}
	if e.flags.Has(FlagPresent) {
		return errors.Wrapf(ErrPageAlreadyMapped, "%s -> %s", page, e.frame)
	}

	if flags.Has(FlagPresent | FlagWritable) {
		if err := mmfile.Protect(as.data, off, PageSize, true); err != nil {
			return errors.Wrapf(err, "map %s", page)
		}
	}
	e.frame = frame
	e.flags = flags
	as.mapped++
	return nil
}

// leaf walks to the P1 entry for addr, creating missing tables.
func (as *AddressSpace) leaf(addr VirtAddr, frames FrameAllocator) (*entry, error) {
	t := as.p4
	for level := 4; level > 1; level-- {
		e := &t.entries[addr.index(level)]
		if e.next == nil {
			if frames == nil {
				return nil, errors.Wrapf(ErrFrameAllocationFailed, "no frame allocator for level %d table", level-1)
			}
			f, ok := frames.AllocateFrame()
			if !ok {
				return nil, errors.Wrapf(ErrFrameAllocationFailed, "level %d table", level-1)
			}
			e.next = &table{frame: f}
			e.frame = f
			e.flags = FlagPresent | FlagWritable
			as.tables++
			logger.Debug("paging: created table", "level", level-1, "frame", f.start.String())
		}
		t = e.next
	}
	return &t.entries[addr.P1Index()], nil
}

// Translate implements Mapper.
func (as *AddressSpace) Translate(addr VirtAddr) (PhysAddr, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	t := as.p4
	for level := 4; level > 1; level-- {
		e := t.entries[addr.index(level)]
		if e.next == nil {
			return 0, false
		}
		t = e.next
	}
	e := t.entries[addr.P1Index()]
	if !e.flags.Has(FlagPresent) {
		return 0, false
	}
	return e.frame.start + PhysAddr(addr.PageOffset()), true
}

// Region implements Mapper.
func (as *AddressSpace) Region(start, size uintptr) (*mem.Region, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.data == nil {
		return nil, ErrClosed
	}
	if size == 0 {
		return nil, errors.Wrap(ErrOutOfRange, "empty region")
	}
	off, ok := as.offset(VirtAddr(start))
	if !ok || uint64(off)+uint64(size) > uint64(len(as.data)) {
		return nil, errors.Wrapf(ErrOutOfRange, "region [%#x, +%d)", start, size)
	}

	for page := range PageRangeFor(VirtAddr(start), uint64(size)).All() {
		if !as.writable(page.start) {
			return nil, errors.Wrapf(ErrNotMapped, "%s", page)
		}
	}
	end := off + int(size)
	return mem.NewRegion(start, as.data[off:end:end])
}

func (as *AddressSpace) writable(addr VirtAddr) bool {
	t := as.p4
	for level := 4; level > 1; level-- {
		t = t.entries[addr.index(level)].next
		if t == nil {
			return false
		}
	}
	return t.entries[addr.P1Index()].flags.Has(FlagPresent | FlagWritable)
}

func (as *AddressSpace) offset(addr VirtAddr) (int, bool) {
	if addr < as.base || uint64(addr-as.base) >= uint64(len(as.data)) {
		return 0, false
	}
	return int(addr - as.base), true
}

// Stats reports how many pages are mapped and how many page tables below
// the root have been created.
func (as *AddressSpace) Stats() (mapped, tables int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.mapped, as.tables
}

// Close releases the window. Regions handed out by Region must not be used
// afterwards.
func (as *AddressSpace) Close() error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.data == nil {
		return nil
	}
	err := mmfile.Release(as.data)
	as.data = nil
	return err
}

var _ Mapper = (*AddressSpace)(nil)
