package alloc

// Stats holds allocator counters. Strategy-specific fields stay zero for
// strategies that do not have the concept.
type Stats struct {
	HeapStart uintptr
	HeapEnd   uintptr

	AllocCalls   int   // Total Allocate calls
	FreeCalls    int   // Total Deallocate calls
	OutOfMemory  int   // Allocate calls that returned ErrOutOfMemory
	Live         int   // Outstanding allocations
	BytesInUse   int64 // Sum of requested sizes of outstanding allocations
	PeakInUse    int64 // High-water mark of BytesInUse
	BumpNext     uintptr
	SplitCount   int   // Free regions split to serve a request (linked list)
	FreeRegions  int   // Nodes in the general free list (linked list)
	FreeBytes    int64 // Bytes held by the general free list (linked list)
	ClassHits    int   // Requests served by popping a size-class list
	ClassRefills int   // Fresh class blocks carved from the fallback heap
	FallbackUsed int   // Oversized requests sent straight to the fallback heap

	// ClassFree counts free blocks per size class (fixed-size-block).
	ClassFree [NumClasses]int
}

// counters is the mutable part of Stats embedded in every allocator.
type counters struct {
	allocCalls  int
	freeCalls   int
	outOfMemory int
	live        int
	bytesInUse  int64
	peakInUse   int64
}

func (c *counters) allocated(size uintptr) {
	c.live++
	c.bytesInUse += int64(size)
	if c.bytesInUse > c.peakInUse {
		c.peakInUse = c.bytesInUse
	}
}

func (c *counters) freed(size uintptr) {
	c.freeCalls++
	c.live--
	c.bytesInUse -= int64(size)
}

func (c *counters) fill(s *Stats) {
	s.AllocCalls = c.allocCalls
	s.FreeCalls = c.freeCalls
	s.OutOfMemory = c.outOfMemory
	s.Live = c.live
	s.BytesInUse = c.bytesInUse
	s.PeakInUse = c.peakInUse
}
