package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFor(t *testing.T) {
	tests := []struct {
		layout Layout
		want   int
	}{
		{MustLayout(1, 1), 0},
		{MustLayout(8, 8), 0},
		{MustLayout(9, 1), 1},
		{MustLayout(5, 16), 1},
		{MustLayout(100, 8), 4},
		{MustLayout(24, 64), 3},
		{MustLayout(2048, 1), 8},
		{MustLayout(2049, 1), -1},
		{MustLayout(8, 4096), -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassFor(tt.layout), "%+v", tt.layout)
	}
	assert.Equal(t, "32B", ClassName(2))
	assert.Equal(t, "fallback", ClassName(-1))
}

// TestFixedSizeBlock_RefillThenReuse tests the empty-class refill and the O(1) pop.
func TestFixedSizeBlock_RefillThenReuse(t *testing.T) {
	a := NewFixedSizeBlock()
	a.Init(newTestRegion(t, 4096))

	ptr, err := a.Allocate(MustLayout(24, 8))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart), ptr, "refill carved from the fallback heap start")
	assert.Equal(t, uintptr(4096-32), a.Fallback().FreeBytes())

	a.Deallocate(ptr, MustLayout(24, 8))
	assert.Equal(t, []uintptr{ptr}, a.FreeBlocks(2))
	assert.Equal(t, uintptr(4096-32), a.Fallback().FreeBytes(), "class blocks never return to the fallback")

	again, err := a.Allocate(MustLayout(20, 4))
	require.NoError(t, err)
	assert.Equal(t, ptr, again, "same class reuses the freed block")
	assert.Empty(t, a.FreeBlocks(2))

	s := a.Stats()
	assert.Equal(t, 1, s.ClassHits)
	assert.Equal(t, 1, s.ClassRefills)
	assert.Zero(t, s.FallbackUsed)
}

// TestFixedSizeBlock_LIFOPerClass tests that each class keeps its own LIFO list.
func TestFixedSizeBlock_LIFOPerClass(t *testing.T) {
	a := NewFixedSizeBlock()
	a.Init(newTestRegion(t, 8192))

	small := MustLayout(8, 8)
	big := MustLayout(512, 8)

	s1, err := a.Allocate(small)
	require.NoError(t, err)
	s2, err := a.Allocate(small)
	require.NoError(t, err)
	b1, err := a.Allocate(big)
	require.NoError(t, err)

	a.Deallocate(s1, small)
	a.Deallocate(s2, small)
	a.Deallocate(b1, big)

	counts := a.FreeBlockCounts()
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[6])
	assert.Equal(t, []uintptr{s2, s1}, a.FreeBlocks(0), "most recently freed first")

	got, err := a.Allocate(small)
	require.NoError(t, err)
	assert.Equal(t, s2, got)
	got, err = a.Allocate(MustLayout(300, 4))
	require.NoError(t, err)
	assert.Equal(t, b1, got, "300 bytes rounds to the 512 class")
}

// TestFixedSizeBlock_Oversized tests the direct fallback path.
func TestFixedSizeBlock_Oversized(t *testing.T) {
	a := NewFixedSizeBlock()
	a.Init(newTestRegion(t, 8192))

	l := MustLayout(3000, 8)
	ptr, err := a.Allocate(l)
	require.NoError(t, err)
	assert.Equal(t, uintptr(8192-3000), a.Fallback().FreeBytes())

	a.Deallocate(ptr, l)
	assert.Equal(t, uintptr(8192), a.Fallback().FreeBytes(), "oversized blocks return to the fallback")
	assert.Equal(t, [NumClasses]int{}, a.FreeBlockCounts())
	assert.Equal(t, 1, a.Stats().FallbackUsed)

	_, err = a.Allocate(MustLayout(3000, 8))
	require.NoError(t, err)
	_, err = a.Allocate(MustLayout(3000, 8))
	require.NoError(t, err)
	_, err = a.Allocate(MustLayout(3000, 8))
	require.ErrorIs(t, err, ErrOutOfMemory)
}

// TestFixedSizeBlock_ClassAlignment checks that every class-served block is
// aligned to its class size.
func TestFixedSizeBlock_ClassAlignment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewFixedSizeBlock()
	a.Init(newTestRegion(t, 256*1024))

	type live struct {
		ptr uintptr
		l   Layout
	}
	var blocks []live
	for i := range 2000 {
		align := uintptr(1) << rng.Intn(12)
		size := uintptr(1 + rng.Intn(MaxBlockSize))
		if max(size, align) > MaxBlockSize {
			continue
		}
		l := MustLayout(size, align)

		if len(blocks) > 0 && rng.Intn(3) == 0 {
			j := rng.Intn(len(blocks))
			a.Deallocate(blocks[j].ptr, blocks[j].l)
			blocks = append(blocks[:j], blocks[j+1:]...)
			continue
		}

		ptr, err := a.Allocate(l)
		if err != nil {
			require.ErrorIs(t, err, ErrOutOfMemory, "step %d", i)
			continue
		}
		class := BlockSizes[ClassFor(l)]
		require.Zero(t, ptr%class, "step %d: %#x for %+v not aligned to class %d", i, ptr, l, class)
		blocks = append(blocks, live{ptr, l})
	}
}

// TestFixedSizeBlock_ContractViolations tests the fatal paths.
func TestFixedSizeBlock_ContractViolations(t *testing.T) {
	r := newTestRegion(t, 4096)
	a := NewFixedSizeBlock()
	a.Init(r)

	requireFatal(t, func() { a.Init(r) }, "double init")
	requireFatal(t, func() { a.Deallocate(testHeapStart+8, MustLayout(64, 8)) }, "misaligned class block")
	requireFatal(t, func() { a.Deallocate(testHeapStart+8192, MustLayout(64, 8)) }, "class block outside heap")
	requireFatal(t, func() { NewFixedSizeBlock().Deallocate(testHeapStart, MustLayout(8, 8)) }, "free before init")
}

// TestFixedSizeBlock_Uninitialized tests that allocation fails before Init.
func TestFixedSizeBlock_Uninitialized(t *testing.T) {
	a := NewFixedSizeBlock()
	_, err := a.Allocate(MustLayout(8, 8))
	require.ErrorIs(t, err, ErrOutOfMemory)
	_, err = a.Allocate(MustLayout(4096, 8))
	require.ErrorIs(t, err, ErrOutOfMemory)
}
