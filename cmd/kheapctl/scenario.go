package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/kernel/alloc"
	"github.com/joshuapare/kheap/kernel/heap"
)

const scenarioHeapSize = 4096

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario",
		Short: "Replay the reference free-list scenario",
		Long: `The scenario command builds a 4096-byte linked-list heap and walks it
through the reference sequence: two 100-byte allocations, a free, a 50-byte
allocation that reuses the freed block and a 4000-byte allocation that must
fail with out of memory. Any deviation is reported as an error.

Example:
  kheapctl scenario
  kheapctl scenario --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario()
		},
	}
}

// scenarioStep is one line of the scenario transcript.
type scenarioStep struct {
	Op     string  `json:"op"`
	Size   uintptr `json:"size"`
	Align  uintptr `json:"align"`
	Addr   uintptr `json:"addr,omitempty"`
	Result string  `json:"result"`
}

func runScenario() error {
	s, err := heap.NewSimulated(heap.Config{
		Start:    heap.HeapStart,
		Size:     scenarioHeapSize,
		Strategy: heap.StrategyLinkedList,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	var steps []scenarioStep
	record := func(st scenarioStep) {
		steps = append(steps, st)
		if !jsonOut {
			if st.Addr != 0 {
				printInfo("%-7s size=%-4d align=%d -> %#x  %s\n", st.Op, st.Size, st.Align, st.Addr, st.Result)
			} else {
				printInfo("%-7s size=%-4d align=%d -> %s\n", st.Op, st.Size, st.Align, st.Result)
			}
		}
	}

	first, err := s.Alloc(100, 8)
	if err != nil {
		return errors.Wrap(err, "first allocation")
	}
	if first != heap.HeapStart {
		return errors.Newf("first block at %#x, want heap start %#x", first, uintptr(heap.HeapStart))
	}
	record(scenarioStep{Op: "alloc", Size: 100, Align: 8, Addr: first, Result: "heap start"})

	second, err := s.Alloc(100, 8)
	if err != nil {
		return errors.Wrap(err, "second allocation")
	}
	if (alloc.Span{Start: first, Size: 100}).Overlaps(alloc.Span{Start: second, Size: 100}) {
		return errors.Newf("second block %#x overlaps first %#x", second, first)
	}
	record(scenarioStep{Op: "alloc", Size: 100, Align: 8, Addr: second, Result: "after first"})

	s.Dealloc(first, 100, 8)
	record(scenarioStep{Op: "free", Size: 100, Align: 8, Addr: first, Result: "ok"})

	third, err := s.Alloc(50, 8)
	if err != nil {
		return errors.Wrap(err, "third allocation")
	}
	result := "new region"
	if third == first {
		result = "reused freed block"
	}
	record(scenarioStep{Op: "alloc", Size: 50, Align: 8, Addr: third, Result: result})

	_, err = s.Alloc(4000, 8)
	if !errors.Is(err, alloc.ErrOutOfMemory) {
		return errors.Newf("4000-byte allocation: got %v, want out of memory", err)
	}
	record(scenarioStep{Op: "alloc", Size: 4000, Align: 8, Result: "out of memory"})

	if jsonOut {
		return printJSON(steps)
	}
	printVerbose("Free regions after scenario: %d\n", s.Stats().FreeRegions)
	return nil
}
