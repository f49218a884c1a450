package format

// Alignment utilities for heap addresses.
// Every alignment passed here must be a power of two. This is a caller
// contract and is not checked on the hot path; use IsPowerOfTwo at the
// boundary where untrusted values come in.

// AlignUp returns the smallest value >= addr that is a multiple of align.
//
// Example:
//
//	AlignUp(97, 8)   = 104
//	AlignUp(104, 8)  = 104
//	AlignUp(1, 4096) = 4096
//
// The result wraps to a small value when addr is within align of the top of
// the address space; callers that care check with AlignUpChecked.
func AlignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

// AlignUpChecked is AlignUp with overflow detection. ok is false when the
// aligned address does not fit in a uintptr.
func AlignUpChecked(addr, align uintptr) (uintptr, bool) {
	aligned := AlignUp(addr, align)
	return aligned, aligned >= addr
}

// AlignDown returns the largest multiple of align that is <= addr.
//
// Example:
//
//	AlignDown(4097, 4096) = 4096
//	AlignDown(4095, 4096) = 0
func AlignDown(addr, align uintptr) uintptr {
	return addr &^ (align - 1)
}

// IsAligned reports whether addr is a multiple of align.
func IsAligned(addr, align uintptr) bool {
	return addr&(align-1) == 0
}

// IsPowerOfTwo reports whether x is a non-zero power of two.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// AlignPage returns n aligned up to the next 4KB page boundary.
func AlignPage(n uintptr) uintptr {
	return (n + PageAlignmentMask) &^ PageAlignmentMask
}
