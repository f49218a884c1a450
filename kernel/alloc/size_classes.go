package alloc

import "fmt"

// BlockSizes are the fixed size classes of the fixed-size-block allocator.
//
// Every class is a power of two, so a class's size doubles as its
// alignment. No class is smaller than a word because a freed block must
// hold the address of the next free block.
//
//	Class 0:    8 bytes
//	Class 1:   16 bytes
//	Class 2:   32 bytes
//	Class 3:   64 bytes
//	Class 4:  128 bytes
//	Class 5:  256 bytes
//	Class 6:  512 bytes
//	Class 7: 1024 bytes
//	Class 8: 2048 bytes
var BlockSizes = [...]uintptr{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// NumClasses is the number of size classes.
const NumClasses = len(BlockSizes)

// MaxBlockSize is the largest class; bigger requests go to the fallback heap.
const MaxBlockSize = 2048

// classFor returns the index of the smallest class that can hold l. The
// required block size is max(l.Size, l.Align): a class that large is also
// aligned enough. ok is false when the request exceeds every class.
func classFor(l Layout) (int, bool) {
	required := max(l.Size, l.Align)
	for i, size := range BlockSizes {
		if size >= required {
			return i, true
		}
	}
	return 0, false
}

// ClassFor is the exported form of the class lookup, for diagnostics.
// It returns -1 when l goes to the fallback heap.
func ClassFor(l Layout) int {
	if i, ok := classFor(l); ok {
		return i
	}
	return -1
}

// ClassName returns a human-readable label for a class index.
func ClassName(i int) string {
	if i < 0 || i >= NumClasses {
		return "fallback"
	}
	return fmt.Sprintf("%dB", BlockSizes[i])
}
