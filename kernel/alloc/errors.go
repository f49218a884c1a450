package alloc

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfMemory indicates that no free region large and aligned enough
	// was found, or that the address arithmetic for the request would
	// overflow. It is the only recoverable allocation failure; retrying is
	// the caller's decision.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidLayout indicates a layout whose alignment is not a power of
	// two or whose padded size overflows.
	ErrInvalidLayout = errors.New("alloc: invalid layout")
)

// fatalf reports a broken caller contract: double initialization, a free
// region that cannot hold a list node, freeing with the wrong layout.
// Continuing would silently corrupt the free lists, so it panics with an
// assertion failure (errors.IsAssertionFailure reports true for it).
func fatalf(format string, args ...any) {
	panic(errors.AssertionFailedf("alloc: "+format, args...))
}
