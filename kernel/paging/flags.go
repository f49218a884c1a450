package paging

import "strings"

// PageFlags are the permission bits of a page table entry.
type PageFlags uint8

const (
	// FlagPresent marks the entry as a valid translation.
	FlagPresent PageFlags = 1 << iota
	// FlagWritable allows writes through the translation.
	FlagWritable
)

// Has reports whether every bit of want is set.
func (f PageFlags) Has(want PageFlags) bool { return f&want == want }

func (f PageFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(FlagPresent) {
		parts = append(parts, "present")
	}
	if f.Has(FlagWritable) {
		parts = append(parts, "writable")
	}
	return strings.Join(parts, "|")
}
