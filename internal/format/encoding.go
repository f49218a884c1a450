package format

import "encoding/binary"

// Binary encoding of in-place heap records.
//
// Records are written as little-endian 64-bit words regardless of the host,
// so a heap image reads the same everywhere.

// PutWord writes an address-sized value at off in little-endian format.
func PutWord(b []byte, off int, v uintptr) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], uint64(v))
}

// ReadWord reads an address-sized value at off in little-endian format.
func ReadWord(b []byte, off int) uintptr {
	return uintptr(binary.LittleEndian.Uint64(b[off : off+WordSize]))
}
