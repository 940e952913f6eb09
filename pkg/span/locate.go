// Package span finds the source bytes behind rendered text.
//
// The annotator prefers the parser's own segment positions. When a node carries
// none (synthesized strings, autolink labels, blocks without line segments) its
// literal text is looked up in the source instead.
package span

import (
	"bytes"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Locate returns the first occurrence of needle in haystack at or after from.
// An empty needle never matches.
func Locate(haystack, needle []byte, from int) (mdast.SourceRange, bool) {
	if len(needle) == 0 || from < 0 || from > len(haystack) {
		return mdast.SourceRange{}, false
	}

	idx := bytes.Index(haystack[from:], needle)
	if idx < 0 {
		return mdast.SourceRange{}, false
	}

	start := from + idx
	return mdast.SourceRange{StartOffset: start, EndOffset: start + len(needle)}, true
}

// Cursor tracks the search position while walking a document in order.
//
// Block lookups advance the cursor past each match so sibling blocks with the
// same text resolve to successive occurrences. Inline lookups search from the
// start of their enclosing block and leave the cursor alone, so a duplicate
// phrase earlier in the same block can win.
type Cursor struct {
	source []byte
	pos    int
}

// NewCursor returns a cursor positioned at the start of source.
func NewCursor(source []byte) *Cursor {
	return &Cursor{source: source}
}

// Pos returns the current search position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Seek moves the cursor forward to pos. Moving backwards is ignored.
func (c *Cursor) Seek(pos int) {
	if pos > c.pos && pos <= len(c.source) {
		c.pos = pos
	}
}

// Block locates a block construct and advances the cursor past it.
func (c *Cursor) Block(needle []byte) (mdast.SourceRange, bool) {
	found, ok := Locate(c.source, needle, c.pos)
	if ok {
		c.pos = found.EndOffset
	}
	return found, ok
}

// Inline locates an inline construct inside within without moving the cursor.
func (c *Cursor) Inline(within mdast.SourceRange, needle []byte) (mdast.SourceRange, bool) {
	if !within.Valid(len(c.source)) {
		return mdast.SourceRange{}, false
	}

	found, ok := Locate(c.source[:within.EndOffset], needle, within.StartOffset)
	if !ok {
		return mdast.SourceRange{}, false
	}
	return found, true
}

// NextLine returns the first non-blank line at or after the cursor, without its
// newline, and advances past it. It is the approximate range given to blocks
// that have neither positions nor text.
func (c *Cursor) NextLine() (mdast.SourceRange, bool) {
	pos := c.pos
	for pos < len(c.source) {
		end := bytes.IndexByte(c.source[pos:], '\n')
		lineEnd := len(c.source)
		next := len(c.source)
		if end >= 0 {
			lineEnd = pos + end
			next = lineEnd + 1
		}

		line := bytes.TrimRight(c.source[pos:lineEnd], "\r")
		if len(bytes.TrimSpace(line)) > 0 {
			c.pos = next
			return mdast.SourceRange{StartOffset: pos, EndOffset: pos + len(line)}, true
		}
		pos = next
	}
	return mdast.SourceRange{}, false
}
