package alloc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/kernel/mem"
)

// testHeapStart mirrors the boot heap's virtual base so addresses in test
// failures look like the real thing.
const testHeapStart = 0x4444_4444_0000

// newTestRegion returns a zeroed region of size bytes at testHeapStart.
func newTestRegion(t testing.TB, size int) *mem.Region {
	t.Helper()
	r, err := mem.NewRegion(testHeapStart, make([]byte, size))
	require.NoError(t, err)
	return r
}

// requireFatal runs fn and requires it to panic with an assertion failure.
func requireFatal(t *testing.T, fn func(), msgAndArgs ...any) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		require.NotNil(t, rec, msgAndArgs...)
		err, ok := rec.(error)
		require.True(t, ok, "panic value %v is not an error", rec)
		require.True(t, errors.IsAssertionFailure(err), "panic %v is not an assertion failure", err)
	}()
	fn()
}

// fillBlock writes v over the block, standing in for the caller using it.
func fillBlock(t testing.TB, r *mem.Region, ptr, size uintptr, v byte) {
	t.Helper()
	b, err := r.Slice(ptr, size)
	require.NoError(t, err)
	for i := range b {
		b[i] = v
	}
}

// requireBlock checks that the block still holds v everywhere.
func requireBlock(t testing.TB, r *mem.Region, ptr, size uintptr, v byte) {
	t.Helper()
	b, err := r.Slice(ptr, size)
	require.NoError(t, err)
	for i, got := range b {
		if got != v {
			require.Failf(t, "block corrupted", "block %#x byte %d = %#x, want %#x", ptr, i, got, v)
		}
	}
}

// heapUnderTest pairs an initialized heap with the region it manages.
type heapUnderTest struct {
	heap   Heap
	region *mem.Region
}

// heapsUnderTest builds one fresh, initialized heap per strategy.
func heapsUnderTest(t testing.TB, size int) map[string]heapUnderTest {
	t.Helper()
	out := make(map[string]heapUnderTest)
	for name, h := range map[string]Heap{
		"bump":             NewBump(),
		"linked-list":      NewLinkedList(),
		"fixed-size-block": NewFixedSizeBlock(),
	} {
		r := newTestRegion(t, size)
		h.Init(r)
		out[name] = heapUnderTest{heap: h, region: r}
	}
	return out
}
