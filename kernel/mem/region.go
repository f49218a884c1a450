// Package mem provides Region, the view of mapped memory that every heap
// allocator works on.
//
// A Region pairs a virtual base address with the bytes that back it. All
// addresses crossing the allocator API are virtual; a Region translates them
// to slice offsets and refuses anything that falls outside the mapping. This
// is how in-place records (free-list nodes written into free memory) stay
// memory-safe in Go: every "pointer" dereference is a bounds-checked word
// access on the backing slice.
package mem

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
)

var (
	// ErrNilBase indicates a region whose base address is zero. Address zero
	// terminates in-place lists, so no record may ever live there.
	ErrNilBase = errors.New("mem: region base must be non-zero")

	// ErrMisaligned indicates a region base that is not word aligned.
	ErrMisaligned = errors.New("mem: region base must be word aligned")

	// ErrOutOfRange indicates an address range outside the region.
	ErrOutOfRange = errors.New("mem: address range outside region")
)

// Region is a contiguous, writable, already-mapped address range
// [Start, End) backed by data.
type Region struct {
	base uintptr
	data []byte
}

// NewRegion wraps data as the memory at virtual address base.
func NewRegion(base uintptr, data []byte) (*Region, error) {
	if base == format.NilAddr {
		return nil, ErrNilBase
	}
	if !format.IsAligned(base, format.WordAlignment) {
		return nil, errors.Wrapf(ErrMisaligned, "base %#x", base)
	}
	if _, ok := buf.AddOverflowSafe(base, uintptr(len(data))); !ok {
		return nil, errors.Wrapf(ErrOutOfRange, "base %#x + %d bytes overflows", base, len(data))
	}
	return &Region{base: base, data: data}, nil
}

// Start returns the first address of the region.
func (r *Region) Start() uintptr { return r.base }

// End returns the address one past the last byte of the region.
func (r *Region) End() uintptr { return r.base + uintptr(len(r.data)) }

// Size returns the region length in bytes.
func (r *Region) Size() uintptr { return uintptr(len(r.data)) }

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr, n uintptr) bool {
	_, ok := buf.Offset(r.base, len(r.data), addr, n)
	return ok
}

// Slice returns the bytes backing [addr, addr+n).
func (r *Region) Slice(addr, n uintptr) ([]byte, error) {
	off, ok := buf.Offset(r.base, len(r.data), addr, n)
	if !ok {
		return nil, errors.Wrapf(ErrOutOfRange, "[%#x, +%d) in [%#x, %#x)", addr, n, r.Start(), r.End())
	}
	return r.data[off : off+int(n)], nil
}

// ReadWord loads the word stored at addr.
//
// An out-of-region or misaligned addr means a corrupted free list; the call
// panics with an assertion failure rather than return garbage.
func (r *Region) ReadWord(addr uintptr) uintptr {
	return format.ReadWord(r.data, r.wordOffset(addr))
}

// WriteWord stores v at addr. See ReadWord for the failure mode.
func (r *Region) WriteWord(addr, v uintptr) {
	format.PutWord(r.data, r.wordOffset(addr), v)
}

func (r *Region) wordOffset(addr uintptr) int {
	if !format.IsAligned(addr, format.WordAlignment) {
		panic(errors.AssertionFailedf("mem: word access at misaligned address %#x", addr))
	}
	off, ok := buf.Offset(r.base, len(r.data), addr, format.WordSize)
	if !ok {
		panic(errors.AssertionFailedf("mem: word access at %#x outside [%#x, %#x)", addr, r.Start(), r.End()))
	}
	return off
}
