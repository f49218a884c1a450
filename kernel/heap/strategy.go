package heap

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Strategy selects the allocator behind a heap.
type Strategy int

const (
	// StrategyBump hands out memory from a watermark and reclaims it only
	// when every block has been freed.
	StrategyBump Strategy = iota
	// StrategyLinkedList keeps a first-fit free list threaded through the
	// free memory itself.
	StrategyLinkedList
	// StrategyFixedSizeBlock serves small requests from per-size-class lists
	// and everything else from a linked-list fallback.
	StrategyFixedSizeBlock
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{StrategyBump, StrategyLinkedList, StrategyFixedSizeBlock}

func (s Strategy) String() string {
	switch s {
	case StrategyBump:
		return "bump"
	case StrategyLinkedList:
		return "linked-list"
	case StrategyFixedSizeBlock:
		return "fixed-size-block"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a name to a Strategy. Names are case-insensitive, and
// "linkedlist", "fsb" and "block" are accepted as aliases.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bump":
		return StrategyBump, nil
	case "linked-list", "linkedlist":
		return StrategyLinkedList, nil
	case "fixed-size-block", "fsb", "block":
		return StrategyFixedSizeBlock, nil
	}
	return 0, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}
