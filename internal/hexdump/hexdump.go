// Package hexdump renders heap memory as an addressed hex dump with a
// code page 437 sidebar, the character set a VGA text console shows.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const bytesPerLine = 16

// Options controls Dump.
type Options struct {
	// Squeeze replaces runs of identical lines with a single "*".
	Squeeze bool
}

// Dump writes data as lines of 16 bytes, each prefixed with its virtual
// address (base + offset).
func Dump(w io.Writer, base uintptr, data []byte, opts Options) error {
	var prev []byte
	squeezed := false
	for off := 0; off < len(data); off += bytesPerLine {
		line := data[off:min(off+bytesPerLine, len(data))]
		if opts.Squeeze && prev != nil && len(line) == bytesPerLine && bytes.Equal(line, prev) {
			if !squeezed {
				if _, err := io.WriteString(w, "*\n"); err != nil {
					return err
				}
				squeezed = true
			}
			continue
		}
		squeezed = false
		prev = line
		if _, err := io.WriteString(w, Line(base+uintptr(off), line)); err != nil {
			return err
		}
	}
	return nil
}

// String is Dump into a string.
func String(base uintptr, data []byte, opts Options) string {
	var b strings.Builder
	_ = Dump(&b, base, data, opts)
	return b.String()
}

// Line formats up to 16 bytes as one dump line, newline included.
func Line(addr uintptr, line []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%016x  ", addr)

	for i := range bytesPerLine {
		if i < len(line) {
			fmt.Fprintf(&b, "%02x ", line[i])
		} else {
			b.WriteString("   ")
		}
		if i == 7 {
			b.WriteByte(' ')
		}
	}

	b.WriteString(" |")
	for _, c := range line {
		b.WriteRune(Glyph(c))
	}
	b.WriteString("|\n")
	return b.String()
}

// Glyph returns the CP437 character for c. Control codes and DEL are shown
// as '.', so line layout survives any byte value.
func Glyph(c byte) rune {
	if c < 0x20 || c == 0x7f {
		return '.'
	}
	return charmap.CodePage437.DecodeByte(c)
}
