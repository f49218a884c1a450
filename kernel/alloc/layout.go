package alloc

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/kheap/internal/format"
)

// Layout describes a requested block: its size in bytes and the power-of-two
// alignment its start address must satisfy. Dealloc must be passed the same
// Layout that Alloc was.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout validates size and align. align must be a power of two and size
// rounded up to align must not overflow.
func NewLayout(size, align uintptr) (Layout, error) {
	if !format.IsPowerOfTwo(align) {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "align %d is not a power of two", align)
	}
	if _, ok := format.AlignUpChecked(size, align); !ok {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "size %d overflows when padded to %d", size, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// MustLayout is NewLayout for constant arguments; it panics on error.
func MustLayout(size, align uintptr) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// PadToAlign returns the layout with Size rounded up to a multiple of Align.
// ok is false on overflow.
func (l Layout) PadToAlign() (Layout, bool) {
	size, ok := format.AlignUpChecked(l.Size, l.Align)
	return Layout{Size: size, Align: l.Align}, ok
}

// Span is an address range [Start, Start+Size).
type Span struct {
	Start uintptr
	Size  uintptr
}

// End returns the first address past the span.
func (s Span) End() uintptr { return s.Start + s.Size }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Size != 0 && o.Size != 0 && s.Start < o.End() && o.Start < s.End()
}
