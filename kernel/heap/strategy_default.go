//go:build !kheap_bump && !kheap_linkedlist

package heap

// DefaultStrategy is the strategy InitHeap uses. Build with the kheap_bump
// or kheap_linkedlist tag to change it.
const DefaultStrategy = StrategyFixedSizeBlock
