package preview_test

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/preview"
	"github.com/yaklabco/mdsync/pkg/render"
)

func renderSource(t *testing.T, source string) *render.Result {
	t.Helper()
	result, err := render.New(render.DefaultOptions()).Render(context.Background(), []byte(source))
	require.NoError(t, err)
	return result
}

func TestPane_Empty(t *testing.T) {
	t.Parallel()

	pane := preview.New(preview.DefaultOptions())
	assert.Equal(t, 0, pane.SourceMap().Len())
	assert.Equal(t, 0, pane.ScrollTop())
	assert.Equal(t, 0, pane.MaxScroll())

	_, ok := pane.Resolver().ResolveOffset(0)
	assert.False(t, ok)
}

func TestPane_ScrollClamps(t *testing.T) {
	t.Parallel()

	opts := preview.DefaultOptions()
	opts.ViewportHeight = 100
	pane := preview.New(opts)
	require.NoError(t, pane.Load(renderSource(t, strings.Repeat("line\n\n", 40))))

	require.Greater(t, pane.ScrollHeight(), pane.ViewportHeight())

	assert.Equal(t, 50, pane.SetScrollTop(50))
	assert.Equal(t, -50, pane.SetScrollTop(-10))
	assert.Equal(t, 0, pane.ScrollTop())

	pane.SetScrollTop(1 << 20)
	assert.Equal(t, pane.MaxScroll(), pane.ScrollTop())

	// A shorter document pulls the scroll offset back into range.
	require.NoError(t, pane.Load(renderSource(t, "short")))
	assert.Equal(t, 0, pane.ScrollTop())
}

func TestPane_ViewportCoordinates(t *testing.T) {
	t.Parallel()

	opts := preview.DefaultOptions()
	opts.ViewportHeight = 50
	pane := preview.New(opts)
	require.NoError(t, pane.Load(renderSource(t, strings.Repeat("line\n\n", 20))))

	entry := pane.SourceMap().Entries()[5]
	before, ok := pane.ElementRect(entry.Node)
	require.True(t, ok)

	pane.SetScrollTop(100)
	after, ok := pane.ElementRect(entry.Node)
	require.True(t, ok)
	assert.Equal(t, before.Sub(image.Pt(0, 100)), after)

	pos, ok := pane.CaretAt(image.Pt(after.Min.X+1, after.Min.Y+1))
	require.True(t, ok)
	assert.Equal(t, "line", pos.Node.Data)
}

func TestPane_LoadReplacesEverything(t *testing.T) {
	t.Parallel()

	pane := preview.New(preview.DefaultOptions())
	require.NoError(t, pane.Load(renderSource(t, "# One\n\ntwo\n")))
	first := pane.SourceMap().Entries()[0].Node

	require.NoError(t, pane.Load(renderSource(t, "# One\n\ntwo\n")))
	_, ok := pane.SourceMap().ForNode(first)
	assert.False(t, ok, "entries must point into the new DOM")
	_, ok = pane.ElementRect(first)
	assert.False(t, ok, "old nodes have no geometry")
}

func TestPane_LoadFailedRender(t *testing.T) {
	t.Parallel()

	pane := preview.New(preview.DefaultOptions())
	failed := &render.Result{HTML: render.Placeholder(errors.New("bad")), Failed: true, Source: []byte("x")}
	require.NoError(t, pane.Load(failed))

	assert.Equal(t, 0, pane.SourceMap().Len())
	assert.True(t, pane.Result().Failed)
	assert.Positive(t, pane.ScrollHeight())
}
