// Package buf contains overflow-safe arithmetic and bounds checks for
// translating heap addresses into offsets of a backing byte slice.
package buf

import "math/bits"

// AddOverflowSafe adds a and b, returning ok = false when the result would
// wrap around the address space.
func AddOverflowSafe(a, b uintptr) (uintptr, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || uint64(uintptr(sum)) != sum {
		return 0, false
	}
	return uintptr(sum), true
}

// SubUnderflowSafe subtracts b from a, returning ok = false when b > a.
func SubUnderflowSafe(a, b uintptr) (uintptr, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// Offset translates the address range [addr, addr+n) into an offset of a
// slice of length bufLen whose first byte lives at base. ok is false when
// the range starts before base, overflows, or runs past the end.
func Offset(base uintptr, bufLen int, addr, n uintptr) (int, bool) {
	rel, ok := SubUnderflowSafe(addr, base)
	if !ok {
		return 0, false
	}
	end, ok := AddOverflowSafe(rel, n)
	if !ok || end > uintptr(bufLen) {
		return 0, false
	}
	return int(rel), true
}
