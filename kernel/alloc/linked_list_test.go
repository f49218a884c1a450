package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLinkedList_InitSingleRegion tests that Init installs one region covering the heap.
func TestLinkedList_InitSingleRegion(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 4096))

	assert.Equal(t, []Span{{Start: testHeapStart, Size: 4096}}, a.FreeRegions())
	assert.Equal(t, uintptr(4096), a.FreeBytes())
}

// TestLinkedList_NodeWrittenInPlace tests that the free list lives in heap bytes.
func TestLinkedList_NodeWrittenInPlace(t *testing.T) {
	r := newTestRegion(t, 4096)
	a := NewLinkedList()
	a.Init(r)

	assert.Equal(t, uintptr(4096), r.ReadWord(testHeapStart+nodeSizeOff))
	assert.Zero(t, r.ReadWord(testHeapStart+nodeNextOff), "single node has no successor")

	ptr, err := a.Allocate(MustLayout(100, 8))
	require.NoError(t, err)
	// Tail node after a 104-byte block.
	assert.Equal(t, uintptr(4096-104), r.ReadWord(ptr+104+nodeSizeOff))
}

// TestLinkedList_Scenario walks the 4096-byte heap example end to end.
func TestLinkedList_Scenario(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 4096))

	first, err := a.Allocate(MustLayout(100, 8))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart), first, "first block at heap start")

	second, err := a.Allocate(MustLayout(100, 8))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart+104), second, "second block right after the padded first")
	assert.False(t, Span{first, 100}.Overlaps(Span{second, 100}))

	a.Deallocate(first, MustLayout(100, 8))

	third, err := a.Allocate(MustLayout(50, 8))
	require.NoError(t, err)
	assert.Equal(t, first, third, "freed region is reused first (LIFO)")

	_, err = a.Allocate(MustLayout(4000, 8))
	require.ErrorIs(t, err, ErrOutOfMemory)
}

// TestLinkedList_SizeAlignPadding tests the node-sized padding rule.
func TestLinkedList_SizeAlignPadding(t *testing.T) {
	tests := []struct {
		layout    Layout
		wantSize  uintptr
		wantAlign uintptr
	}{
		{MustLayout(1, 1), 16, 8},
		{MustLayout(16, 8), 16, 8},
		{MustLayout(17, 8), 24, 8},
		{MustLayout(100, 8), 104, 8},
		{MustLayout(100, 64), 128, 64},
		{MustLayout(0, 4096), 16, 4096},
	}
	for _, tt := range tests {
		size, align, ok := sizeAlign(tt.layout)
		require.True(t, ok)
		assert.Equal(t, tt.wantSize, size, "%+v", tt.layout)
		assert.Equal(t, tt.wantAlign, align, "%+v", tt.layout)
	}

	_, _, ok := sizeAlign(Layout{Size: ^uintptr(0), Align: 8})
	assert.False(t, ok)
}

// TestLinkedList_RejectsUnreturnableSliver tests that a region leaving a
// sub-node tail is skipped rather than consumed.
func TestLinkedList_RejectsUnreturnableSliver(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 4096))

	// Carve the heap into [0,120) free and the rest allocated.
	small, err := a.Allocate(MustLayout(120, 8))
	require.NoError(t, err)
	_, err = a.Allocate(MustLayout(4096-120, 8))
	require.NoError(t, err)
	a.Deallocate(small, MustLayout(120, 8))
	require.Equal(t, []Span{{Start: testHeapStart, Size: 120}}, a.FreeRegions())

	// 112 bytes would leave an 8-byte tail: too small for a node.
	_, err = a.Allocate(MustLayout(112, 8))
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, []Span{{Start: testHeapStart, Size: 120}}, a.FreeRegions(), "region stays whole")

	// 104 leaves exactly one node: accepted and split.
	ptr, err := a.Allocate(MustLayout(104, 8))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart), ptr)
	assert.Equal(t, []Span{{Start: testHeapStart + 104, Size: 16}}, a.FreeRegions())

	// An exact fit leaves no tail at all.
	ptr, err = a.Allocate(MustLayout(16, 8))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart+104), ptr)
	assert.Empty(t, a.FreeRegions())
}

// TestLinkedList_FirstFitSkipsMisaligned tests that alignment padding is
// accounted for when checking a region.
func TestLinkedList_FirstFitSkipsMisaligned(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 4096))

	ptr, err := a.Allocate(MustLayout(24, 8))
	require.NoError(t, err)
	require.Equal(t, uintptr(testHeapStart), ptr)

	// Head is now the tail at +24. A 256-aligned block must start at +256.
	aligned, err := a.Allocate(MustLayout(64, 256))
	require.NoError(t, err)
	assert.Equal(t, uintptr(testHeapStart+256), aligned)
	assert.Zero(t, aligned%256)
}

// TestLinkedList_NoCoalescing tests that adjacent frees stay separate regions.
func TestLinkedList_NoCoalescing(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 256))
	l := MustLayout(64, 8)

	var ptrs []uintptr
	for range 4 {
		p, err := a.Allocate(l)
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	require.Empty(t, a.FreeRegions())

	for _, p := range ptrs {
		a.Deallocate(p, l)
	}
	assert.Len(t, a.FreeRegions(), 4, "no merging of neighbours")
	assert.Equal(t, uintptr(256), a.FreeBytes())

	_, err := a.Allocate(MustLayout(128, 8))
	require.ErrorIs(t, err, ErrOutOfMemory, "fragmented heap cannot serve a larger block")

	// LIFO: the last freed block comes back first.
	p, err := a.Allocate(l)
	require.NoError(t, err)
	assert.Equal(t, ptrs[3], p)
}

// TestLinkedList_Stats tests the split and free-list counters.
func TestLinkedList_Stats(t *testing.T) {
	a := NewLinkedList()
	a.Init(newTestRegion(t, 1024))

	p, err := a.Allocate(MustLayout(100, 8))
	require.NoError(t, err)
	s := a.Stats()
	assert.Equal(t, 1, s.SplitCount)
	assert.Equal(t, 1, s.FreeRegions)
	assert.Equal(t, int64(1024-104), s.FreeBytes)
	assert.Equal(t, int64(100), s.BytesInUse)
	assert.Equal(t, uintptr(testHeapStart), s.HeapStart)
	assert.Equal(t, uintptr(testHeapStart+1024), s.HeapEnd)

	a.Deallocate(p, MustLayout(100, 8))
	s = a.Stats()
	assert.Equal(t, 2, s.FreeRegions)
	assert.Zero(t, s.Live)
	assert.Equal(t, int64(100), s.PeakInUse)
}

// TestLinkedList_ContractViolations tests the fatal paths of region registration.
func TestLinkedList_ContractViolations(t *testing.T) {
	r := newTestRegion(t, 1024)
	a := NewLinkedList()
	a.Init(r)

	requireFatal(t, func() { a.Init(r) }, "double init")
	requireFatal(t, func() { a.addFreeRegion(testHeapStart+4, 64) }, "misaligned region")
	requireFatal(t, func() { a.addFreeRegion(testHeapStart+64, 8) }, "region smaller than a node")
	requireFatal(t, func() { a.addFreeRegion(testHeapStart+1016, 16) }, "region past heap end")
	requireFatal(t, func() { NewLinkedList().Init(newTestRegion(t, 8)) }, "heap smaller than a node")
	requireFatal(t, func() { NewLinkedList().Deallocate(testHeapStart, MustLayout(8, 8)) }, "free before init")
}

// TestLinkedList_CycleDetected tests that a corrupted list is caught by the walk.
func TestLinkedList_CycleDetected(t *testing.T) {
	r := newTestRegion(t, 1024)
	a := NewLinkedList()
	a.Init(r)

	r.WriteWord(testHeapStart+nodeNextOff, testHeapStart)
	requireFatal(t, func() { a.FreeRegions() })
}
