// Package editor provides the source side of cursor sync: an in-memory text
// buffer with a cursor, a selection, a scroll position, and change
// notifications.
package editor

import (
	"sync"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// EventKind identifies what changed in a Buffer.
type EventKind int

const (
	EventText EventKind = iota
	EventCursor
	EventSelection
	EventScroll
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCursor:
		return "cursor"
	case EventSelection:
		return "selection"
	case EventScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// Selection is a range selected from Anchor to Focus. Focus may precede Anchor.
type Selection struct {
	Anchor int `json:"anchor"`
	Focus  int `json:"focus"`
}

// Start returns the smaller end.
func (s Selection) Start() int { return min(s.Anchor, s.Focus) }

// End returns the larger end.
func (s Selection) End() int { return max(s.Anchor, s.Focus) }

// IsEmpty reports whether the selection is a bare cursor.
func (s Selection) IsEmpty() bool { return s.Anchor == s.Focus }

// Event is delivered to subscribers after a change.
type Event struct {
	Kind      EventKind
	Version   uint64
	Cursor    int
	Selection Selection
	ScrollTop int
}

// Buffer holds editor state. It is safe for concurrent use; subscribers are
// called synchronously after the lock is released.
type Buffer struct {
	mu        sync.RWMutex
	snapshot  *mdast.Snapshot
	version   uint64
	cursor    int
	selection Selection
	scrollTop int

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// NewBuffer creates a buffer holding text with the cursor at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{
		snapshot: mdast.NewSnapshot("", []byte(text)),
		subs:     make(map[int]func(Event)),
	}
}

// Subscribe registers fn for change events and returns a function removing it.
func (b *Buffer) Subscribe(fn func(Event)) func() {
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

func (b *Buffer) notify(ev Event) {
	b.subMu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (b *Buffer) event(kind EventKind) Event {
	return Event{
		Kind:      kind,
		Version:   b.version,
		Cursor:    b.cursor,
		Selection: b.selection,
		ScrollTop: b.scrollTop,
	}
}

// Value returns the text.
func (b *Buffer) Value() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.snapshot.Content)
}

// Version increases on every text change.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// SetValue replaces the text, clamping cursor and selection to it.
func (b *Buffer) SetValue(text string) {
	b.mu.Lock()
	b.snapshot = mdast.NewSnapshot("", []byte(text))
	b.version++
	b.cursor = b.clamp(b.cursor)
	b.selection = Selection{Anchor: b.clamp(b.selection.Anchor), Focus: b.clamp(b.selection.Focus)}
	ev := b.event(EventText)
	b.mu.Unlock()

	b.notify(ev)
}

// CursorOffset returns the cursor's byte offset.
func (b *Buffer) CursorOffset() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursorOffset moves the cursor and collapses the selection onto it.
func (b *Buffer) SetCursorOffset(offset int) {
	b.mu.Lock()
	offset = b.clamp(offset)
	if offset == b.cursor && b.selection.IsEmpty() && b.selection.Focus == offset {
		b.mu.Unlock()
		return
	}
	b.cursor = offset
	b.selection = Selection{Anchor: offset, Focus: offset}
	ev := b.event(EventCursor)
	b.mu.Unlock()

	b.notify(ev)
}

// Selection returns the current selection.
func (b *Buffer) Selection() Selection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection
}

// SetSelection selects from anchor to focus and puts the cursor at focus.
func (b *Buffer) SetSelection(anchor, focus int) {
	b.mu.Lock()
	b.selection = Selection{Anchor: b.clamp(anchor), Focus: b.clamp(focus)}
	b.cursor = b.selection.Focus
	ev := b.event(EventSelection)
	b.mu.Unlock()

	b.notify(ev)
}

// ScrollTop returns the editor's scroll offset in lines.
func (b *Buffer) ScrollTop() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scrollTop
}

// SetScrollTop scrolls the editor to the given first visible line (0-based).
func (b *Buffer) SetScrollTop(line int) {
	b.mu.Lock()
	line = min(max(line, 0), max(b.snapshot.LineCount()-1, 0))
	if line == b.scrollTop {
		b.mu.Unlock()
		return
	}
	b.scrollTop = line
	ev := b.event(EventScroll)
	b.mu.Unlock()

	b.notify(ev)
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.LineCount()
}

// LineCol converts an offset to 1-based line and byte column.
func (b *Buffer) LineCol(offset int) (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.LineAt(offset)
}

// LineStart returns the offset of the first byte of a 0-based line.
func (b *Buffer) LineStart(line int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if off, ok := b.snapshot.Offset(line+1, 1); ok {
		return off
	}
	return len(b.snapshot.Content)
}

func (b *Buffer) clamp(offset int) int {
	return min(max(offset, 0), len(b.snapshot.Content))
}
