package buf

import (
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(^uintptr(0), 1); ok {
		t.Fatalf("expected overflow when adding to max uintptr")
	}
	if _, ok := AddOverflowSafe(^uintptr(0)-100, 4096); ok {
		t.Fatalf("expected overflow for size near the top of the address space")
	}
}

func TestSubUnderflowSafe(t *testing.T) {
	if d, ok := SubUnderflowSafe(10, 4); !ok || d != 6 {
		t.Fatalf("SubUnderflowSafe(10,4)=%d,%v want 6,true", d, ok)
	}
	if _, ok := SubUnderflowSafe(4, 10); ok {
		t.Fatalf("expected underflow")
	}
}

func TestOffset(t *testing.T) {
	const base = 0x1000
	if off, ok := Offset(base, 64, base+8, 8); !ok || off != 8 {
		t.Fatalf("Offset inside range = %d,%v want 8,true", off, ok)
	}
	if _, ok := Offset(base, 64, base-8, 8); ok {
		t.Fatalf("Offset should fail below base")
	}
	if _, ok := Offset(base, 64, base+60, 8); ok {
		t.Fatalf("Offset should fail past the end")
	}
	if off, ok := Offset(base, 64, base+56, 8); !ok || off != 56 {
		t.Fatalf("Offset for last word = %d,%v want 56,true", off, ok)
	}
}
