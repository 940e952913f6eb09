package cursorsync

import "unicode/utf8"

// Navigation keys forwarded from the preview to the editor. Names follow
// KeyboardEvent.key.
const (
	KeyLeft     = "ArrowLeft"
	KeyRight    = "ArrowRight"
	KeyUp       = "ArrowUp"
	KeyDown     = "ArrowDown"
	KeyHome     = "Home"
	KeyEnd      = "End"
	KeyPageUp   = "PageUp"
	KeyPageDown = "PageDown"
)

// pageLines is how many lines PageUp and PageDown move.
const pageLines = 20

var navigationKeys = map[string]bool{
	KeyLeft: true, KeyRight: true, KeyUp: true, KeyDown: true,
	KeyHome: true, KeyEnd: true, KeyPageUp: true, KeyPageDown: true,
}

// IsNavigationKey reports whether key moves the cursor without editing.
// Everything else typed into the preview is discarded.
func IsNavigationKey(key string) bool {
	return navigationKeys[key]
}

// navigate returns the cursor offset after pressing key at offset in text.
func navigate(text string, offset int, key string) int {
	offset = min(max(offset, 0), len(text))

	switch key {
	case KeyLeft:
		if offset == 0 {
			return 0
		}
		_, size := utf8.DecodeLastRuneInString(text[:offset])
		return offset - size
	case KeyRight:
		if offset == len(text) {
			return offset
		}
		_, size := utf8.DecodeRuneInString(text[offset:])
		return offset + size
	case KeyHome:
		return lineStart(text, offset)
	case KeyEnd:
		return lineEnd(text, offset)
	case KeyUp:
		return moveLines(text, offset, -1)
	case KeyDown:
		return moveLines(text, offset, 1)
	case KeyPageUp:
		return moveLines(text, offset, -pageLines)
	case KeyPageDown:
		return moveLines(text, offset, pageLines)
	default:
		return offset
	}
}

func lineStart(text string, offset int) int {
	for offset > 0 && text[offset-1] != '\n' {
		offset--
	}
	return offset
}

func lineEnd(text string, offset int) int {
	for offset < len(text) && text[offset] != '\n' {
		offset++
	}
	return offset
}

// moveLines moves by n lines keeping the byte column where the target line
// is long enough. A move that runs past the first or last line stops on it;
// a move from that line itself goes to the start or end of the text.
func moveLines(text string, offset, n int) int {
	start := lineStart(text, offset)
	col := offset - start

	switch {
	case n < 0 && start == 0:
		return 0
	case n > 0 && lineEnd(text, start) == len(text):
		return len(text)
	}

	for ; n < 0 && start > 0; n++ {
		start = lineStart(text, start-1)
	}
	for ; n > 0; n-- {
		end := lineEnd(text, start)
		if end == len(text) {
			break
		}
		start = end + 1
	}

	return min(start+col, lineEnd(text, start))
}
