package goldmark

import (
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// segmentsRange returns the span from the first segment start to the last segment stop.
func segmentsRange(lines *text.Segments) (mdast.SourceRange, bool) {
	if lines == nil || lines.Len() == 0 {
		return mdast.SourceRange{}, false
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	if last.Stop < first.Start {
		return mdast.SourceRange{}, false
	}
	return mdast.SourceRange{StartOffset: first.Start, EndOffset: last.Stop}, true
}

// childrenSpan returns the union of the located children's source ranges.
func childrenSpan(n *mdast.Node) (mdast.SourceRange, bool) {
	var span mdast.SourceRange
	found := false
	for child := n.FirstChild; child != nil; child = child.Next {
		if !child.Located {
			continue
		}
		if !found {
			span = child.Source
			found = true
			continue
		}
		span = span.Union(child.Source)
	}
	return span, found
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lineStartOf returns the offset of the first byte of the line containing off.
func lineStartOf(src []byte, off int) int {
	off = min(off, len(src))
	for off > 0 && src[off-1] != '\n' {
		off--
	}
	return off
}

// lineEndOf returns the offset of the newline ending the line containing off,
// or len(src) on the last line.
func lineEndOf(src []byte, off int) int {
	for off < len(src) && src[off] != '\n' {
		off++
	}
	return off
}

// trimRight moves end back over trailing whitespace, never past start.
func trimRight(src []byte, start, end int) int {
	end = min(end, len(src))
	for end > start {
		switch src[end-1] {
		case ' ', '\t', '\r', '\n':
			end--
		default:
			return end
		}
	}
	return end
}

// skipSpaces moves off forward over spaces and tabs, never past limit.
func skipSpaces(src []byte, off, limit int) int {
	for off < limit && off < len(src) && isSpace(src[off]) {
		off++
	}
	return off
}

// backOverSpaces moves off back over spaces and tabs on the same line.
func backOverSpaces(src []byte, off int) int {
	for off > 0 && isSpace(src[off-1]) {
		off--
	}
	return off
}

// atxStart returns the offset of the first '#' of an ATX heading whose content
// begins at contentStart.
func atxStart(src []byte, contentStart int) (int, bool) {
	p := backOverSpaces(src, contentStart)
	hashes := p
	for hashes > 0 && src[hashes-1] == '#' {
		hashes--
	}
	if hashes == p {
		return 0, false
	}
	return hashes, true
}

// listMarkerStart returns the offset of the bullet or ordinal marker that
// precedes an item's content, or contentStart if none is found.
func listMarkerStart(src []byte, contentStart int) int {
	p := backOverSpaces(src, contentStart)
	if p == 0 {
		return contentStart
	}

	switch c := src[p-1]; c {
	case '-', '+', '*':
		return p - 1
	case '.', ')':
		d := p - 1
		for d > 0 && isDigit(src[d-1]) {
			d--
		}
		if d < p-1 {
			return d
		}
	}
	return contentStart
}

// quoteMarkerStart returns the offset of the '>' introducing a blockquote whose
// first child starts at contentStart, or contentStart if none is found.
func quoteMarkerStart(src []byte, contentStart int) int {
	p := backOverSpaces(src, contentStart)
	if p > 0 && src[p-1] == '>' {
		return p - 1
	}
	return contentStart
}

// runBefore counts consecutive c bytes ending just before off, up to limit.
func runBefore(src []byte, off int, c byte, limit int) int {
	n := 0
	for n < limit && off-n-1 >= 0 && src[off-n-1] == c {
		n++
	}
	return n
}

// runAfter counts consecutive c bytes starting at off, up to limit.
func runAfter(src []byte, off int, c byte, limit int) int {
	n := 0
	for n < limit && off+n < len(src) && src[off+n] == c {
		n++
	}
	return n
}

// fenceIn returns the offset of the first fence character on [start,end).
func fenceIn(src []byte, start, end int) (int, byte, bool) {
	for p := start; p < end && p < len(src); p++ {
		if src[p] == '`' || src[p] == '~' {
			if runAfter(src, p, src[p], 3) == 3 {
				return p, src[p], true
			}
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// linkTail returns the end of a link's destination or reference part that
// starts at off, just after the closing ']' of the label.
func linkTail(src []byte, off int) (int, bool) {
	if off >= len(src) {
		return off, true
	}

	var open, closing byte
	switch src[off] {
	case '(':
		open, closing = '(', ')'
	case '[':
		open, closing = '[', ']'
	default:
		return off, true
	}

	depth := 0
	for p := off; p < len(src); p++ {
		switch src[p] {
		case '\\':
			p++
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return p + 1, open == '['
			}
		}
	}
	return off, true
}
