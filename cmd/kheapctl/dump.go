package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/internal/hexdump"
	"github.com/joshuapare/kheap/kernel/alloc"
	"github.com/joshuapare/kheap/kernel/heap"
)

var (
	dumpStrategy  string
	dumpOps       int
	dumpSeed      int64
	dumpMaxSize   int
	dumpHeapSize  int
	dumpBytes     int
	dumpOffset    int
	dumpNoSqueeze bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpStrategy, "strategy", heap.DefaultStrategy.String(), "Allocator: bump, linked-list, fixed-size-block")
	cmd.Flags().IntVar(&dumpOps, "ops", 64, "Number of alloc/free operations before dumping")
	cmd.Flags().Int64Var(&dumpSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&dumpMaxSize, "max-size", 256, "Largest request in bytes")
	cmd.Flags().IntVar(&dumpHeapSize, "heap-size", 8192, "Heap size in bytes")
	cmd.Flags().IntVar(&dumpBytes, "bytes", 512, "Heap bytes to hexdump (0 = rest of the heap)")
	cmd.Flags().IntVar(&dumpOffset, "offset", 0, "Heap offset the hexdump starts at")
	cmd.Flags().BoolVar(&dumpNoSqueeze, "no-squeeze", false, "Print repeated lines instead of '*'")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump free lists and raw heap memory after a workload",
		Long: `The dump command runs a short random workload, then prints the
allocator's free lists and a hex dump of the start of the heap. Free-list
nodes live inside the heap bytes, so the dump shows them in place.

Example:
  kheapctl dump
  kheapctl dump --strategy linked-list --ops 20 --bytes 256
  kheapctl dump --offset 4096 --bytes 128
  kheapctl dump --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump()
		},
	}
	return cmd
}

// freeListDump is the JSON form of the dump.
type freeListDump struct {
	Strategy    string               `json:"strategy"`
	HeapStart   uintptr              `json:"heap_start"`
	HeapSize    uintptr              `json:"heap_size"`
	Live        int                  `json:"live"`
	Watermark   uintptr              `json:"watermark,omitempty"`
	FreeRegions []alloc.Span         `json:"free_regions,omitempty"`
	FreeClasses map[string][]uintptr `json:"free_classes,omitempty"`
	Hexdump     []string             `json:"hexdump"`
}

func runDump() error {
	if dumpOffset < 0 {
		return errors.Newf("--offset %d is negative", dumpOffset)
	}
	s, err := newCLIHeap(dumpStrategy, dumpHeapSize)
	if err != nil {
		return err
	}
	defer s.Close()

	res, _, err := runWorkload(s.Heap, workloadConfig{ops: dumpOps, seed: dumpSeed, maxSize: dumpMaxSize})
	if err != nil {
		return err
	}

	d := freeListDump{
		Strategy:  res.Strategy,
		HeapStart: s.Region().Start(),
		HeapSize:  s.Region().Size(),
		Live:      res.Live,
	}
	s.Inspect(func(h alloc.Heap) {
		switch a := h.(type) {
		case *alloc.BumpAllocator:
			d.Watermark = a.Next()
		case *alloc.LinkedListAllocator:
			d.FreeRegions = a.FreeRegions()
		case *alloc.FixedSizeBlockAllocator:
			d.FreeRegions = a.Fallback().FreeRegions()
			d.FreeClasses = make(map[string][]uintptr)
			for i := range alloc.NumClasses {
				if blocks := a.FreeBlocks(i); len(blocks) > 0 {
					d.FreeClasses[alloc.ClassName(i)] = blocks
				}
			}
		}
	})

	start := s.Region().Start() + uintptr(dumpOffset)
	n := s.Region().Size()
	if uintptr(dumpOffset) < n {
		n -= uintptr(dumpOffset)
	}
	if dumpBytes > 0 && uintptr(dumpBytes) < n {
		n = uintptr(dumpBytes)
	}
	data, err := s.Region().Slice(start, n)
	if err != nil {
		return errors.Wrap(err, "dump")
	}
	dump := hexdump.String(start, data, hexdump.Options{Squeeze: !dumpNoSqueeze})
	d.Hexdump = strings.Split(strings.TrimSuffix(dump, "\n"), "\n")

	if jsonOut {
		return printJSON(d)
	}

	printInfo("Strategy: %s  heap [%#x, %#x)  live blocks: %d\n",
		d.Strategy, d.HeapStart, d.HeapStart+d.HeapSize, d.Live)
	if d.Watermark != 0 {
		printInfo("Watermark: %#x (%d bytes used)\n", d.Watermark, d.Watermark-d.HeapStart)
	}
	if len(d.FreeClasses) > 0 {
		printInfo("\nSize-class free lists:\n")
		for i := range alloc.NumClasses {
			blocks := d.FreeClasses[alloc.ClassName(i)]
			if len(blocks) == 0 {
				continue
			}
			printInfo("  %-6s %d: %s\n", alloc.ClassName(i), len(blocks), formatAddrs(blocks))
		}
	}
	if d.Strategy != heap.StrategyBump.String() {
		printInfo("\nFree regions (%d):\n", len(d.FreeRegions))
		for _, r := range d.FreeRegions {
			printInfo("  %#x  %6d bytes\n", r.Start, r.Size)
		}
	}
	if !quiet {
		fmt.Fprintf(os.Stdout, "\nMemory:\n%s", dump)
	}
	return nil
}

func formatAddrs(addrs []uintptr) string {
	const maxShown = 8
	parts := make([]string, 0, min(len(addrs), maxShown)+1)
	for i, a := range addrs {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("... +%d", len(addrs)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("%#x", a))
	}
	return strings.Join(parts, " ")
}
