//go:build !unix

// Package mmfile provides platform-specific helpers for reserving and
// protecting the anonymous memory that backs a heap's virtual range.
package mmfile

import "github.com/cockroachdb/errors"

// Reserve allocates size zeroed bytes when anonymous mappings are not available.
func Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("mmfile: invalid reservation size %d", size)
	}
	return make([]byte, size), nil
}

// Protect is a no-op without mmap; the whole slice is always accessible.
func Protect(b []byte, off, n int, writable bool) error {
	if off < 0 || off+n > len(b) {
		return errors.Newf("mmfile: protect [%d, %d) beyond %d bytes", off, off+n, len(b))
	}
	return nil
}

// Release is a no-op without mmap.
func Release(b []byte) error {
	return nil
}
