//go:build unix

// Package mmfile provides platform-specific helpers for reserving and
// protecting the anonymous memory that backs a heap's virtual range.
package mmfile

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Reserve maps size bytes of anonymous, inaccessible memory. Pages must be
// made accessible with Protect before they are touched.
func Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("mmfile: invalid reservation size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "mmfile: reserve %d bytes", size)
	}
	return data, nil
}

// Protect changes the access of b[off:off+n]. The range is widened to the
// host page size, so callers may pass 4KB pages on hosts with larger pages.
func Protect(b []byte, off, n int, writable bool) error {
	if n == 0 {
		return nil
	}
	if off < 0 || n < 0 || off+n > len(b) {
		return errors.Newf("mmfile: protect [%d, %d) beyond %d bytes", off, off+n, len(b))
	}
	pg := unix.Getpagesize()
	start := off &^ (pg - 1)
	end := min((off+n+pg-1)&^(pg-1), len(b))
	prot := unix.PROT_NONE
	if writable {
		prot = unix.PROT_READ | unix.PROT_WRITE
	}
	if err := unix.Mprotect(b[start:end], prot); err != nil {
		return errors.Wrapf(err, "mmfile: mprotect [%d, %d)", start, end)
	}
	return nil
}

// Release unmaps memory obtained from Reserve.
func Release(b []byte) error {
	if b == nil {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
