package resolve_test

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/preview"
	"github.com/yaklabco/mdsync/pkg/render"
)

func load(t *testing.T, source string, opts preview.Options) *preview.Pane {
	t.Helper()

	result, err := render.New(render.DefaultOptions()).Render(context.Background(), []byte(source))
	require.NoError(t, err)
	require.False(t, result.Failed)

	pane := preview.New(opts)
	require.NoError(t, pane.Load(result))
	return pane
}

// textNode returns the first rendered text node whose data is text.
func textNode(t *testing.T, pane *preview.Pane, text string) *html.Node {
	t.Helper()

	for _, n := range dom.TextNodes(pane.Root()) {
		if n.Data == text {
			return n
		}
	}
	require.FailNow(t, "text node not found", text)
	return nil
}

// pointAt returns the viewport point of the caret boundary at offset in n.
func pointAt(t *testing.T, pane *preview.Pane, n *html.Node, offset int) image.Point {
	t.Helper()

	rect, ok := pane.CaretRect(dom.Position{Node: n, Offset: offset})
	require.True(t, ok, "no caret rect for %q@%d", n.Data, offset)
	return image.Pt(rect.Min.X, rect.Min.Y+1)
}

func TestResolveClick_Heading(t *testing.T) {
	t.Parallel()

	pane := load(t, "# Heading", preview.DefaultOptions())
	r := pane.Resolver()
	heading := textNode(t, pane, "Heading")

	got, ok := r.ResolveClick(pointAt(t, pane, heading, 0))
	require.True(t, ok)
	assert.Equal(t, 2, got)

	got, ok = r.ResolveClick(pointAt(t, pane, heading, 3))
	require.True(t, ok)
	assert.Equal(t, 5, got)
}

func TestResolveClick_ListItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		text   string
		want   int
	}{
		{source: "- List item one", text: "List item one", want: 2},
		{source: "1. First item", text: "First item", want: 3},
		{source: "> quoted", text: "quoted", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			pane := load(t, tt.source, preview.DefaultOptions())
			got, ok := pane.Resolver().ResolveClick(pointAt(t, pane, textNode(t, pane, tt.text), 0))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// rawTextNode returns the first rendered text node whose data is text,
// whitespace-only nodes included.
func rawTextNode(t *testing.T, pane *preview.Pane, text string) *html.Node {
	t.Helper()

	var found *html.Node
	dom.Walk(pane.Root(), func(n *html.Node) bool {
		if found == nil && n.Type == html.TextNode && n.Data == text {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "text node %q not found", text)
	return found
}

func TestResolveClick_CodeBlock(t *testing.T) {
	t.Parallel()

	source := "```go\nfunc main() {\n\tx := 1\n}\n```\n"
	pane := load(t, source, preview.DefaultOptions())
	r := pane.Resolver()

	pres := dom.Elements(pane.Root(), func(n *html.Node) bool { return dom.Tag(n) == "pre" })
	require.Len(t, pres, 1)
	spans := dom.Elements(pres[0], func(n *html.Node) bool { return dom.Tag(n) == "span" })
	require.NotEmpty(t, spans, "code is highlighted")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "indentation", token: "\t", want: strings.Index(source, "\tx")},
		{name: "token after indentation", token: "x", want: strings.Index(source, "x :=")},
		{name: "token after spaces", token: "1", want: strings.Index(source, "1\n")},
		{name: "closing brace line", token: "}", want: strings.Index(source, "}\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveClick(pointAt(t, pane, rawTextNode(t, pane, tt.token), 0))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveClick_IndentedCodeBlock(t *testing.T) {
	t.Parallel()

	source := "    x := 1\n"
	pane := load(t, source, preview.DefaultOptions())

	code := rawTextNode(t, pane, "x := 1\n")
	got, ok := pane.Resolver().ResolveClick(pointAt(t, pane, code, 5))
	require.True(t, ok)
	assert.Equal(t, strings.Index(source, "1"), got)
}

func TestResolveClick_MonotonicAlongLine(t *testing.T) {
	t.Parallel()

	pane := load(t, "Some plain words along a single line", preview.DefaultOptions())
	r := pane.Resolver()

	frags := pane.Layout().Fragments()
	require.NotEmpty(t, frags)
	y := frags[0].Rect.Min.Y + 1
	left, right := frags[0].Rect.Min.X, frags[len(frags)-1].Rect.Max.X

	prev := -1
	for x := left; x < right; x++ {
		got, ok := r.ResolveClick(image.Pt(x, y))
		require.True(t, ok, "x=%d", x)
		assert.GreaterOrEqual(t, got, prev, "offset decreased at x=%d", x)
		prev = got
	}
	assert.Positive(t, prev)
}

func TestResolve_RoundTripContentRanges(t *testing.T) {
	t.Parallel()

	source := "# Heading\n\n**strong words**\n\n- item text\n"
	pane := load(t, source, preview.DefaultOptions())
	r := pane.Resolver()

	var checked int
	for _, e := range pane.SourceMap().Entries() {
		if e.Text == nil || e.BlockOnly() {
			continue
		}
		for offset := e.Text.StartOffset; offset <= e.Text.EndOffset; offset++ {
			box, ok := r.ResolveOffset(offset)
			require.True(t, ok, "ResolveOffset(%d)", offset)

			got, ok := r.ResolveClick(image.Pt(box.Left, box.Top+1))
			require.True(t, ok, "ResolveClick for offset %d", offset)
			assert.Equal(t, offset, got, "round trip through %s", e.ID)
			checked++
		}
	}
	assert.Greater(t, checked, 20)
}

func TestResolveClick_Clamped(t *testing.T) {
	t.Parallel()

	pane := load(t, "# Heading\n\nplain text\n", preview.DefaultOptions())
	r := pane.Resolver()

	for _, e := range pane.SourceMap().Entries() {
		rect, ok := pane.ElementRect(e.Node)
		require.True(t, ok)

		far := image.Pt(rect.Max.X-1, rect.Min.Y+1)
		got, ok := r.ResolveClick(far)
		require.True(t, ok)

		if e.Text != nil {
			assert.Equal(t, e.Text.EndOffset, got, "%s clamps to its content end", e.ID)
		} else {
			assert.Equal(t, e.Source.EndOffset-1, got, "%s clamps to its last source byte", e.ID)
		}
		assert.GreaterOrEqual(t, got, e.Source.StartOffset)
		assert.LessOrEqual(t, got, e.Source.EndOffset)
	}
}

// The delimiter length of a closed inline run is not subtracted for text
// after it, so clicks there land short of the true offset.
func TestResolveClick_AfterInlineRunUndercounts(t *testing.T) {
	t.Parallel()

	source := "Some **bold** text"
	pane := load(t, source, preview.DefaultOptions())

	tail := textNode(t, pane, " text")
	got, ok := pane.Resolver().ResolveClick(pointAt(t, pane, tail, 1))
	require.True(t, ok)

	truth := strings.Index(source, "text")
	assert.Equal(t, truth-4, got)
}

func TestResolveClick_Miss(t *testing.T) {
	t.Parallel()

	pane := load(t, "# Heading", preview.DefaultOptions())
	_, ok := pane.Resolver().ResolveClick(image.Pt(5, pane.ScrollHeight()+500))
	assert.False(t, ok)
}

func TestResolveSelection_Ordered(t *testing.T) {
	t.Parallel()

	pane := load(t, "# Heading", preview.DefaultOptions())
	heading := textNode(t, pane, "Heading")

	start, end, ok := pane.Resolver().ResolveSelection(pointAt(t, pane, heading, 5), pointAt(t, pane, heading, 1))
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 7, end)
}

func TestResolveOffset(t *testing.T) {
	t.Parallel()

	source := "# Title\n\n\n```go\nx := 1\n```\n"
	pane := load(t, source, preview.DefaultOptions())
	r := pane.Resolver()

	t.Run("inside delimiter snaps to content start", func(t *testing.T) {
		t.Parallel()
		atHash, ok := r.ResolveOffset(0)
		require.True(t, ok)
		atText, ok := r.ResolveOffset(2)
		require.True(t, ok)
		assert.Equal(t, atText, atHash)
	})

	t.Run("blank line between blocks is unresolvable", func(t *testing.T) {
		t.Parallel()
		_, ok := r.ResolveOffset(8)
		assert.False(t, ok)
	})

	t.Run("end of element", func(t *testing.T) {
		t.Parallel()
		box, ok := r.ResolveOffset(7)
		require.True(t, ok)
		start, _ := r.ResolveOffset(2)
		assert.Greater(t, box.Left, start.Left)
	})

	t.Run("code block caret at its top-left", func(t *testing.T) {
		t.Parallel()
		e, ok := pane.SourceMap().FindContaining(strings.Index(source, "x :="))
		require.True(t, ok)
		require.Equal(t, "pre", e.NodeType)

		rect, ok := pane.ElementRect(e.Node)
		require.True(t, ok)
		box, ok := r.ResolveOffset(strings.Index(source, ":="))
		require.True(t, ok)
		assert.Equal(t, rect.Min.X, box.Left)
		assert.Equal(t, rect.Min.Y, box.Top)
		assert.Positive(t, box.Height)
	})
}

func TestResolveOffset_FollowsScroll(t *testing.T) {
	t.Parallel()

	opts := preview.DefaultOptions()
	opts.ViewportHeight = 40
	pane := load(t, strings.Repeat("paragraph\n\n", 30)+"# End\n", opts)
	r := pane.Resolver()

	end := strings.Index(string(pane.Result().Source), "End")

	before, ok := r.ResolveOffset(end)
	require.True(t, ok)

	moved := pane.SetScrollTop(200)
	require.Equal(t, 200, moved)

	after, ok := r.ResolveOffset(end)
	require.True(t, ok)
	assert.Equal(t, before.Top-200, after.Top)
	assert.Equal(t, before.Left, after.Left)

	got, ok := r.ResolveClick(image.Pt(after.Left, after.Top+1))
	require.True(t, ok)
	assert.Equal(t, end, got)
}
