// Package format holds the low-level layout rules shared by the heap
// allocators: alignment arithmetic, the machine word used for in-place
// records, and the little-endian encoding of those words inside heap bytes.
//
// Nothing here knows about allocation policy. The goal is to keep the raw
// memory conventions in one place so every allocator agrees on them.
package format

const (
	// WordSize is the size in bytes of one in-place record field
	// (an address or a length). Heap records are always 64-bit.
	WordSize = 8

	// WordAlignment is the alignment of every in-place record.
	WordAlignment = 8

	// WordAlignmentMask is WordAlignment-1, for mask arithmetic.
	WordAlignmentMask = WordAlignment - 1

	// PageSize is the size of a mapped page (4KB).
	PageSize = 4096

	// PageAlignmentMask is PageSize-1, for mask arithmetic.
	PageAlignmentMask = PageSize - 1

	// NilAddr marks the end of an in-place linked list.
	// Regions never start at address zero, so it cannot collide with a record.
	NilAddr = 0
)
