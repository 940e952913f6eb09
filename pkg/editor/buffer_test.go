package editor_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/editor"
)

func TestBuffer_ValueAndVersion(t *testing.T) {
	t.Parallel()

	b := editor.NewBuffer("abc")
	assert.Equal(t, "abc", b.Value())
	assert.Equal(t, uint64(0), b.Version())

	b.SetValue("abcdef")
	assert.Equal(t, "abcdef", b.Value())
	assert.Equal(t, uint64(1), b.Version())
}

func TestBuffer_CursorClamps(t *testing.T) {
	t.Parallel()

	b := editor.NewBuffer("hello")
	b.SetCursorOffset(99)
	assert.Equal(t, 5, b.CursorOffset())
	b.SetCursorOffset(-3)
	assert.Equal(t, 0, b.CursorOffset())

	b.SetCursorOffset(4)
	b.SetValue("hi")
	assert.Equal(t, 2, b.CursorOffset(), "shrinking text pulls the cursor in")
}

func TestBuffer_Selection(t *testing.T) {
	t.Parallel()

	b := editor.NewBuffer("hello world")
	b.SetSelection(8, 2)

	sel := b.Selection()
	assert.Equal(t, 2, sel.Start())
	assert.Equal(t, 8, sel.End())
	assert.False(t, sel.IsEmpty())
	assert.Equal(t, 2, b.CursorOffset())

	b.SetCursorOffset(3)
	assert.True(t, b.Selection().IsEmpty())
}

func TestBuffer_Events(t *testing.T) {
	t.Parallel()

	b := editor.NewBuffer("one\ntwo\nthree\n")

	var (
		mu    sync.Mutex
		kinds []editor.EventKind
	)
	cancel := b.Subscribe(func(ev editor.Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	b.SetCursorOffset(2)
	b.SetCursorOffset(2)
	b.SetSelection(0, 3)
	b.SetScrollTop(1)
	b.SetScrollTop(1)
	b.SetValue("x")
	cancel()
	b.SetCursorOffset(1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []editor.EventKind{
		editor.EventCursor,
		editor.EventSelection,
		editor.EventScroll,
		editor.EventText,
	}, kinds)
}

func TestBuffer_Lines(t *testing.T) {
	t.Parallel()

	b := editor.NewBuffer("one\ntwo\nthree\n")
	require.Equal(t, 4, b.LineCount(), "the trailing newline opens an empty last line")

	line, col := b.LineCol(5)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
	assert.Equal(t, 4, b.LineStart(1))
	assert.Equal(t, 14, b.LineStart(10))

	b.SetScrollTop(50)
	assert.Equal(t, 3, b.ScrollTop())
}
