package heap

import "github.com/cockroachdb/errors"

var (
	// ErrNotInitialized is returned by Alloc before InitHeap has succeeded.
	ErrNotInitialized = errors.New("heap: not initialized")

	// ErrUnknownStrategy indicates a strategy name ParseStrategy does not know.
	ErrUnknownStrategy = errors.New("heap: unknown strategy")

	// ErrInvalidConfig indicates heap geometry that cannot hold a heap.
	ErrInvalidConfig = errors.New("heap: invalid config")
)

func fatalf(format string, args ...any) {
	panic(errors.AssertionFailedf("heap: "+format, args...))
}
