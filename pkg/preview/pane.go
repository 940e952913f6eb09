// Package preview models the read-only preview pane: the rendered DOM, its
// layout, the viewport scrolled over it, and the source map of the render on
// display.
package preview

import (
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/layout"
	"github.com/yaklabco/mdsync/pkg/render"
	"github.com/yaklabco/mdsync/pkg/resolve"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

// Options configures a Pane.
type Options struct {
	Layout         layout.Options
	ViewportHeight int
	Logger         *log.Logger
}

// DefaultOptions returns the default layout with a 600px viewport.
func DefaultOptions() Options {
	return Options{Layout: layout.DefaultOptions(), ViewportHeight: 600}
}

// Pane is the preview of one render. Load replaces everything wholesale;
// nothing from an earlier render survives it. Pane coordinates are viewport
// coordinates: document coordinates minus the scroll offset.
type Pane struct {
	opts   Options
	logger *log.Logger

	result    *render.Result
	root      *html.Node
	layout    *layout.Layout
	smap      *sourcemap.Map
	scrollTop int
}

// New creates an empty pane.
func New(opts Options) *Pane {
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = DefaultOptions().ViewportHeight
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &Pane{opts: opts, logger: logger}
	p.reset()
	return p
}

func (p *Pane) reset() {
	p.result = &render.Result{}
	p.root = &html.Node{Type: html.DocumentNode}
	p.smap = sourcemap.Build(p.root)
	p.layout, _ = layout.New(p.root, p.opts.Layout)
}

// Load displays a render result. The scroll offset is kept, clamped to the
// new document height.
func (p *Pane) Load(result *render.Result) error {
	root, err := dom.ParseFragment(result.HTML)
	if err != nil {
		return fmt.Errorf("load preview: %w", err)
	}
	lay, err := layout.New(root, p.opts.Layout)
	if err != nil {
		return fmt.Errorf("load preview: %w", err)
	}

	p.result = result
	p.root = root
	p.layout = lay
	p.smap = sourcemap.Build(root)
	p.scrollTop = p.clampScroll(p.scrollTop)

	p.logger.Debug("preview loaded", "generation", result.Generation, "entries", p.smap.Len(), "height", lay.Height())
	return nil
}

// Result returns the render on display.
func (p *Pane) Result() *render.Result {
	return p.result
}

// Root returns the rendered DOM.
func (p *Pane) Root() *html.Node {
	return p.root
}

// SourceMap returns the source map of the render on display.
func (p *Pane) SourceMap() *sourcemap.Map {
	return p.smap
}

// Layout returns the document geometry.
func (p *Pane) Layout() *layout.Layout {
	return p.layout
}

// Resolver returns a resolver bound to this pane.
func (p *Pane) Resolver() *resolve.Resolver {
	return resolve.New(p, p.smap, len(p.result.Source), resolve.WithLogger(p.logger))
}

// ScrollTop returns the scroll offset in pixels.
func (p *Pane) ScrollTop() int {
	return p.scrollTop
}

// ScrollHeight returns the document height.
func (p *Pane) ScrollHeight() int {
	return p.layout.Height()
}

// ViewportHeight returns the visible height.
func (p *Pane) ViewportHeight() int {
	return p.opts.ViewportHeight
}

// MaxScroll returns the largest valid scroll offset.
func (p *Pane) MaxScroll() int {
	return max(p.ScrollHeight()-p.ViewportHeight(), 0)
}

// SetScrollTop scrolls to y, clamped to the document, and returns how far the
// view actually moved.
func (p *Pane) SetScrollTop(y int) int {
	next := p.clampScroll(y)
	delta := next - p.scrollTop
	p.scrollTop = next
	return delta
}

func (p *Pane) clampScroll(y int) int {
	return min(max(y, 0), p.MaxScroll())
}

func (p *Pane) toViewport(r image.Rectangle) image.Rectangle {
	return r.Sub(image.Pt(0, p.scrollTop))
}

// ElementRect implements resolve.Geometry.
func (p *Pane) ElementRect(n *html.Node) (image.Rectangle, bool) {
	r, ok := p.layout.ElementRect(n)
	if !ok {
		return image.Rectangle{}, false
	}
	return p.toViewport(r), true
}

// CaretAt implements resolve.Geometry.
func (p *Pane) CaretAt(pt image.Point) (dom.Position, bool) {
	return p.layout.CaretAt(pt.Add(image.Pt(0, p.scrollTop)))
}

// CaretRect implements resolve.Geometry.
func (p *Pane) CaretRect(pos dom.Position) (image.Rectangle, bool) {
	r, ok := p.layout.CaretRect(pos)
	if !ok {
		return image.Rectangle{}, false
	}
	return p.toViewport(r), true
}
