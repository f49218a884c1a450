//go:build kheap_bump

package heap

// DefaultStrategy is the strategy InitHeap uses.
const DefaultStrategy = StrategyBump
