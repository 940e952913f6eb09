package sourcemap_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/render"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

func build(t *testing.T, source string) *sourcemap.Map {
	t.Helper()

	result, err := render.New(render.DefaultOptions()).Render(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	root, err := dom.ParseFragment(result.HTML)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	return sourcemap.Build(root)
}

func ids(m *sourcemap.Map) []string {
	out := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		out = append(out, e.ID)
	}
	return out
}

func TestBuild_IDs(t *testing.T) {
	t.Parallel()

	m := build(t, "# Heading\n\nSome **bold** text\n")

	want := []string{"h1-0", "p-11", "strong-16"}
	if diff := cmp.Diff(want, ids(m)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	e, ok := m.Get("strong-16")
	if !ok {
		t.Fatal("Get(strong-16) failed")
	}
	if e.Source.StartOffset != 16 || e.Source.EndOffset != 24 {
		t.Errorf("strong range = %+v", e.Source)
	}
	if e.Text == nil || e.Text.StartOffset != 18 || e.Text.EndOffset != 22 {
		t.Errorf("strong text range = %+v", e.Text)
	}
	if got, ok := m.ForNode(e.Node); !ok || got != e {
		t.Error("ForNode does not return the entry")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	source := "- a\n- b\n\n> quote *x*\n\n| h |\n| - |\n| c |\n"
	first, second := ids(build(t, source)), ids(build(t, source))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ids differ between builds:\n%s", diff)
	}
}

func TestBuild_CollidingIDs(t *testing.T) {
	t.Parallel()

	// Equal tags at the same offset get ordinals in document order.
	root, err := dom.ParseFragment(`<p data-source-start="0" data-source-end="3">a</p><p data-source-start="0" data-source-end="3">b</p>`)
	if err != nil {
		t.Fatal(err)
	}
	m := sourcemap.Build(root)
	if diff := cmp.Diff([]string{"p-0", "p-0-1"}, ids(m)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFindContaining_Innermost(t *testing.T) {
	t.Parallel()

	m := build(t, "# Heading\n\nSome **bold** text\n")

	tests := []struct {
		offset int
		want   string
		found  bool
	}{
		{offset: 0, want: "h1-0", found: true},
		{offset: 8, want: "h1-0", found: true},
		{offset: 9, found: false},
		{offset: 10, found: false},
		{offset: 11, want: "p-11", found: true},
		{offset: 16, want: "strong-16", found: true},
		{offset: 23, want: "strong-16", found: true},
		{offset: 24, want: "p-11", found: true},
		{offset: 29, found: false},
	}

	for _, tt := range tests {
		e, ok := m.FindContaining(tt.offset)
		if ok != tt.found {
			t.Errorf("FindContaining(%d) found = %v, want %v", tt.offset, ok, tt.found)
			continue
		}
		if ok && e.ID != tt.want {
			t.Errorf("FindContaining(%d) = %s, want %s", tt.offset, e.ID, tt.want)
		}
	}
}

func TestInnermostBlock(t *testing.T) {
	t.Parallel()

	m := build(t, "> quote **x**\n")

	e, ok := m.InnermostBlock(10)
	if !ok {
		t.Fatal("InnermostBlock failed")
	}
	if e.NodeType != "p" {
		t.Errorf("InnermostBlock = %s, want the paragraph", e.ID)
	}
}

func TestFindEndingAt(t *testing.T) {
	t.Parallel()

	m := build(t, "# Heading\n")

	e, ok := m.FindEndingAt(9)
	if !ok || e.ID != "h1-0" {
		t.Errorf("FindEndingAt(9) = %v, %v", e, ok)
	}
	if _, ok := m.FindEndingAt(4); ok {
		t.Error("FindEndingAt(4) should find nothing")
	}
}

func TestBuild_Nil(t *testing.T) {
	t.Parallel()

	if m := sourcemap.Build(nil); m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}
