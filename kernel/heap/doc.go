// Package heap bootstraps the kernel heap: it maps the heap's pages, views
// them as a region and puts the chosen allocator strategy behind a spin lock.
//
// The kernel heap lives at HeapStart and is HeapSize bytes long. InitHeap
// sets it up once; Alloc and Dealloc then route every request through it.
// Which allocator serves the kernel heap is fixed at build time:
//
//	go build                        # fixed-size-block (default)
//	go build -tags kheap_linkedlist # linked list
//	go build -tags kheap_bump       # bump
//
// New builds additional heaps from a Config, and NewSimulated does the same
// in a private address space, which is how kheapctl and the tests run them.
package heap
