package format

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		addr, align, want uintptr
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{97, 8, 104},
		{0x4444_4444_0001, 4096, 0x4444_4444_1000},
		{0x4444_4444_0000, 4096, 0x4444_4444_0000},
		{5, 1, 5},
		{2047, 2048, 2048},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.addr, tt.align), "AlignUp(%d, %d)", tt.addr, tt.align)
	}
}

// TestAlignUp_Property checks that the result is a multiple of align and lies in [addr, addr+align).
func TestAlignUp_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 10000 {
		align := uintptr(1) << rng.Intn(16)
		addr := uintptr(rng.Uint64() >> 2)

		got := AlignUp(addr, align)
		require.Zero(t, got%align, "AlignUp(%#x, %d) not aligned", addr, align)
		require.GreaterOrEqual(t, got, addr)
		require.Less(t, got, addr+align)
	}
}

func TestAlignUpChecked_Overflow(t *testing.T) {
	top := ^uintptr(0) - 2

	_, ok := AlignUpChecked(top, 8)
	assert.False(t, ok, "aligning near the top of the address space must overflow")

	got, ok := AlignUpChecked(top-16, 8)
	require.True(t, ok)
	assert.True(t, IsAligned(got, 8))
}

func TestAlignDown(t *testing.T) {
	assert.Equal(t, uintptr(4096), AlignDown(4097, 4096))
	assert.Equal(t, uintptr(0), AlignDown(4095, 4096))
	assert.Equal(t, uintptr(8192), AlignDown(8192, 4096))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []uintptr{1, 2, 4, 8, 2048, 1 << 40} {
		assert.True(t, IsPowerOfTwo(x), "%d", x)
	}
	for _, x := range []uintptr{0, 3, 6, 12, 2049} {
		assert.False(t, IsPowerOfTwo(x), "%d", x)
	}
}

func TestAlignPage(t *testing.T) {
	assert.Equal(t, uintptr(4096), AlignPage(1))
	assert.Equal(t, uintptr(8192), AlignPage(4097))
}
