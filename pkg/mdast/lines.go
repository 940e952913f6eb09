package mdast

import (
	"bytes"
	"slices"
)

// BuildLines splits content into lines. A trailing newline opens one more,
// empty, line so that the offset just past it still has a position; CRLF
// pairs count as a single line terminator.
func BuildLines(content []byte) []LineInfo {
	lines := make([]LineInfo, 0, bytes.Count(content, []byte{'\n'})+1)
	if len(content) == 0 {
		return lines
	}

	start := 0
	for {
		idx := bytes.IndexByte(content[start:], '\n')
		if idx < 0 {
			break
		}
		end := start + idx
		body := end
		if body > start && content[body-1] == '\r' {
			body--
		}
		lines = append(lines, LineInfo{StartOffset: start, NewlineStart: body, EndOffset: end + 1})
		start = end + 1
	}

	return append(lines, LineInfo{StartOffset: start, NewlineStart: len(content), EndOffset: len(content)})
}

// LineCount returns the number of lines.
func (f *Snapshot) LineCount() int {
	return len(f.Lines)
}

// LineAt maps a byte offset to a 1-based line and byte column. Offsets at
// or beyond the end of the content land on the last line; negative offsets
// and empty snapshots yield (0, 0).
func (f *Snapshot) LineAt(offset int) (int, int) {
	if offset < 0 || len(f.Lines) == 0 {
		return 0, 0
	}

	idx := len(f.Lines) - 1
	if offset < len(f.Content) {
		idx, _ = slices.BinarySearchFunc(f.Lines, offset, func(line LineInfo, target int) int {
			if line.EndOffset <= target {
				return -1
			}
			return 1
		})
		idx = min(idx, len(f.Lines)-1)
	}

	return idx + 1, offset - f.Lines[idx].StartOffset + 1
}

// Offset is the inverse of LineAt. A column one past the line terminator is
// accepted so a cursor can sit at the very end of a line.
func (f *Snapshot) Offset(line, col int) (int, bool) {
	if line < 1 || line > len(f.Lines) || col < 1 {
		return 0, false
	}
	info := f.Lines[line-1]
	offset := info.StartOffset + col - 1
	if offset > info.EndOffset {
		return 0, false
	}
	return offset, true
}

// LineContent returns the text of a 1-based line without its terminator,
// or nil when line is out of range.
func (f *Snapshot) LineContent(line int) []byte {
	if line < 1 || line > len(f.Lines) {
		return nil
	}
	info := f.Lines[line-1]
	return f.Content[info.StartOffset:info.NewlineStart]
}
