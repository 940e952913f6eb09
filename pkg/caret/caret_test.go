package caret_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yaklabco/mdsync/pkg/caret"
)

type call struct {
	Op  string
	Box caret.Box
}

type recorder struct {
	calls []call
}

func (r *recorder) Show(box caret.Box) { r.calls = append(r.calls, call{"show", box}) }
func (r *recorder) Move(box caret.Box) { r.calls = append(r.calls, call{"move", box}) }
func (r *recorder) Hide()              { r.calls = append(r.calls, call{Op: "hide"}) }

func (r *recorder) hides() int {
	n := 0
	for _, c := range r.calls {
		if c.Op == "hide" {
			n++
		}
	}
	return n
}

// locator resolves offsets to boxes on a fake page scrolled by scrollTop.
type locator struct {
	boxes     map[int]caret.Box
	scrollTop int
}

func (l *locator) ResolveOffset(offset int) (caret.Box, bool) {
	b, ok := l.boxes[offset]
	if !ok {
		return caret.Box{}, false
	}
	return b.Translate(-l.scrollTop), true
}

func TestRenderer_MoveTo(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	loc := &locator{boxes: map[int]caret.Box{2: {Top: 10, Left: 20, Height: 16}, 5: {Top: 10, Left: 50, Height: 16}}}
	r := caret.NewRenderer(rec)

	if r.State() != caret.Hidden {
		t.Fatalf("initial state = %v", r.State())
	}

	r.MoveTo(loc, 2)
	r.MoveTo(loc, 5)
	r.MoveTo(loc, 5)
	r.MoveTo(loc, 99)

	want := []call{
		{"show", caret.Box{Top: 10, Left: 20, Height: 16}},
		{"move", caret.Box{Top: 10, Left: 50, Height: 16}},
		{Op: "hide"},
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("overlay calls mismatch (-want +got):\n%s", diff)
	}
	if r.State() != caret.Hidden {
		t.Errorf("state = %v, want hidden", r.State())
	}
}

func TestRenderer_NeverHiddenDuringScroll(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	loc := &locator{boxes: map[int]caret.Box{7: {Top: 300, Left: 40, Height: 22}}}
	r := caret.NewRenderer(rec)
	r.MoveTo(loc, 7)

	for _, dy := range []int{40, 40, 120, -60, 500} {
		loc.scrollTop += dy
		r.Scrolled(loc, dy)
		if r.State() != caret.Visible {
			t.Fatalf("caret hidden after scrolling by %d", dy)
		}
		if got, want := r.Box().Top, 300-loc.scrollTop; got != want {
			t.Errorf("after scroll to %d top = %d, want %d", loc.scrollTop, got, want)
		}
	}

	// The target stops resolving mid-scroll: the box follows the content.
	delete(loc.boxes, 7)
	r.Scrolled(loc, 30)
	if r.State() != caret.Visible {
		t.Fatal("caret hidden when the target stopped resolving during scroll")
	}
	if got, want := r.Box().Top, 300-640-30; got != want {
		t.Errorf("translated top = %d, want %d", got, want)
	}

	if rec.hides() != 0 {
		t.Errorf("overlay hidden %d times during scrolling", rec.hides())
	}
}

func TestRenderer_Rendered(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	loc := &locator{boxes: map[int]caret.Box{3: {Top: 10, Left: 10, Height: 16}}}
	r := caret.NewRenderer(rec)
	r.MoveTo(loc, 3)

	// Unrelated re-render: same geometry, no overlay traffic.
	r.Rendered(loc)
	if len(rec.calls) != 1 {
		t.Errorf("unchanged re-render touched the overlay: %+v", rec.calls)
	}

	// The element moved in the new render.
	loc.boxes[3] = caret.Box{Top: 40, Left: 10, Height: 16}
	r.Rendered(loc)
	if r.Box().Top != 40 {
		t.Errorf("top = %d after re-render, want 40", r.Box().Top)
	}

	// The target vanished from the new render.
	delete(loc.boxes, 3)
	r.Rendered(loc)
	if r.State() != caret.Hidden {
		t.Error("caret should hide when the new render cannot place it")
	}

	// It comes back when a later render places it again.
	loc.boxes[3] = caret.Box{Top: 12, Left: 10, Height: 16}
	r.Rendered(loc)
	if r.State() != caret.Visible {
		t.Error("caret should reappear once the target resolves")
	}
}

func TestRenderer_Clear(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	loc := &locator{boxes: map[int]caret.Box{0: {Height: 10}}}
	r := caret.NewRenderer(rec)
	r.MoveTo(loc, 0)
	r.Clear()

	if _, ok := r.Target(); ok {
		t.Error("Clear should drop the target")
	}
	r.Rendered(loc)
	if r.State() != caret.Hidden {
		t.Error("a cleared caret must stay hidden across renders")
	}
}

func TestMarkup(t *testing.T) {
	t.Parallel()

	got := caret.Markup(caret.Box{Top: 1, Left: 2, Height: 3}, false)
	want := `<div class="mdsync-caret" style="top:1px;left:2px;height:3px" hidden></div>`
	if got != want {
		t.Errorf("Markup = %s", got)
	}
}
