//go:build kheap_linkedlist && !kheap_bump

package heap

// DefaultStrategy is the strategy InitHeap uses.
const DefaultStrategy = StrategyLinkedList
