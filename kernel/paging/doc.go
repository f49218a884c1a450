// Package paging models the 4-level page tables the heap is mapped through.
//
// # Overview
//
// Before a heap can be initialized, every page of its virtual range must be
// mapped to a physical frame and made present and writable. This package
// provides the pieces of that bootstrap:
//
//   - VirtAddr, PhysAddr, Page and Frame: 4KB-granular addresses
//   - PageRange: an inclusive range of pages, as produced for a heap window
//   - FrameAllocator: the source of physical frames (BootFrameAllocator hands
//     them out from the usable regions of a boot memory map)
//   - Mapper: installs page-to-frame translations and answers Translate
//
// AddressSpace is the Mapper implementation. It keeps a real 4-level table
// tree (P4 -> P3 -> P2 -> P1) indexed by the address bits, consuming a frame
// for every intermediate table it creates, and backs its virtual window with
// anonymous host memory that only becomes accessible once a page is mapped
// writable.
//
// # Usage Example
//
//	as, err := paging.NewAddressSpace(paging.VirtAddr(start), size)
//	if err != nil {
//	    return err
//	}
//	defer as.Close()
//
//	frames := paging.NewBootFrameAllocator(memoryMap)
//	for page := range paging.PageRangeFor(paging.VirtAddr(start), size).All() {
//	    frame, ok := frames.AllocateFrame()
//	    if !ok {
//	        return paging.ErrFrameAllocationFailed
//	    }
//	    if err := as.MapTo(page, frame, paging.FlagPresent|paging.FlagWritable, frames); err != nil {
//	        return err
//	    }
//	}
//	region, err := as.Region(uintptr(start), size)
//
// # Errors
//
//   - ErrFrameAllocationFailed: no frame for a page or an intermediate table
//   - ErrPageAlreadyMapped: the page already has a translation
//   - ErrNotMapped: a page in a requested Region is not mapped writable
//   - ErrOutOfRange: the page lies outside the address space window
//
// # Thread Safety
//
// AddressSpace is safe for concurrent use. BootFrameAllocator is not.
package paging
