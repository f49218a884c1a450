package paging

import "github.com/cockroachdb/errors"

var (
	// ErrFrameAllocationFailed indicates the frame allocator ran dry while
	// mapping a page or creating a page table.
	ErrFrameAllocationFailed = errors.New("paging: frame allocation failed")

	// ErrPageAlreadyMapped indicates MapTo was called for a page that already
	// has a translation.
	ErrPageAlreadyMapped = errors.New("paging: page already mapped")

	// ErrNotMapped indicates access to a page without a present, writable
	// translation.
	ErrNotMapped = errors.New("paging: page not mapped")

	// ErrOutOfRange indicates an address outside the address space window.
	ErrOutOfRange = errors.New("paging: address outside window")
)

// ErrClosed indicates use of an AddressSpace after Close.
var ErrClosed = errors.New("paging: address space closed")
