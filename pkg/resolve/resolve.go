// Package resolve translates between preview geometry and source offsets:
// clicks and drags in the preview become editor offsets, and editor offsets
// become caret boxes in the preview.
package resolve

import (
	"errors"
	"image"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/caret"
	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

var (
	// ErrNoElement is reported when no annotated element is under a point.
	ErrNoElement = errors.New("no annotated element at point")

	// ErrNoCaret is reported when an offset has no place in the preview.
	ErrNoCaret = errors.New("offset has no caret position")
)

// Geometry is the rendered preview as seen on screen. All coordinates are
// viewport coordinates.
type Geometry interface {
	ElementRect(n *html.Node) (image.Rectangle, bool)
	CaretAt(pt image.Point) (dom.Position, bool)
	CaretRect(pos dom.Position) (image.Rectangle, bool)
}

// Resolver answers position queries for one render. Build a new one after
// every render; geometry is queried afresh on every call so scrolling needs
// no rebuild.
type Resolver struct {
	geo    Geometry
	smap   *sourcemap.Map
	length int
	logger *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver for a render of a source length bytes long.
func New(geo Geometry, smap *sourcemap.Map, length int, opts ...Option) *Resolver {
	r := &Resolver{geo: geo, smap: smap, length: length, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveClick maps a point in the preview to a source offset. It reports
// false when the point is over no annotated element.
func (r *Resolver) ResolveClick(pt image.Point) (int, bool) {
	hit, ok := r.elementAt(pt)
	if !ok {
		r.logger.Debug("click resolved to nothing", "x", pt.X, "y", pt.Y)
		return 0, false
	}

	pos, ok := r.geo.CaretAt(pt)
	if !ok {
		return r.clamp(hit.Source.StartOffset), true
	}

	entry := hit
	if owner := dom.NearestAnnotated(pos.Node); owner != nil {
		if e, found := r.smap.ForNode(owner); found {
			entry = e
		}
	}

	local := localOffset(entry.Node, pos)
	if entry.Text != nil {
		return r.clamp(min(entry.Text.StartOffset+local, entry.Text.EndOffset)), true
	}
	end := max(entry.Source.EndOffset-1, entry.Source.StartOffset)
	return r.clamp(min(entry.Source.StartOffset+local, end)), true
}

// ResolveSelection maps a drag from anchor to focus to an ordered source range.
func (r *Resolver) ResolveSelection(anchor, focus image.Point) (int, int, bool) {
	a, ok := r.ResolveClick(anchor)
	if !ok {
		return 0, 0, false
	}
	f, ok := r.ResolveClick(focus)
	if !ok {
		return 0, 0, false
	}
	return min(a, f), max(a, f), true
}

// ResolveOffset maps a source offset to a caret box. It reports false when
// no element covers the offset.
func (r *Resolver) ResolveOffset(offset int) (caret.Box, bool) {
	offset = r.clamp(offset)

	entry, ok := r.smap.FindContaining(offset)
	atEnd := false
	if !ok {
		entry, ok = r.smap.FindEndingAt(offset)
		atEnd = true
	}
	if !ok {
		r.logger.Debug("offset outside every element", "offset", offset)
		return caret.Box{}, false
	}

	elemRect, hasRect := r.geo.ElementRect(entry.Node)

	if entry.BlockOnly() {
		if !hasRect {
			return caret.Box{}, false
		}
		box := caret.BoxFromRect(elemRect)
		if first := dom.TextNodes(entry.Node); len(first) > 0 {
			if line, found := r.geo.CaretRect(dom.Position{Node: first[0]}); found && line.Dy() > 0 {
				box.Height = line.Dy()
			}
		}
		return box, true
	}

	pos, found := r.textPosition(entry, offset, atEnd)
	if found {
		if rect, ok := r.geo.CaretRect(pos); ok && rect.Dy() > 0 {
			return caret.BoxFromRect(rect), true
		}
	}

	if !hasRect || elemRect.Empty() {
		return caret.Box{}, false
	}
	return caret.BoxFromRect(elemRect), true
}

// textPosition walks the non-whitespace text nodes of entry to the offset's
// local position. Content-range elements count from the content start.
func (r *Resolver) textPosition(entry *sourcemap.Entry, offset int, atEnd bool) (dom.Position, bool) {
	texts := dom.TextNodes(entry.Node)
	if len(texts) == 0 {
		return dom.Position{}, false
	}

	total := 0
	for _, t := range texts {
		total += len(t.Data)
	}

	base := entry.Source.StartOffset
	if entry.Text != nil {
		base = entry.Text.StartOffset
	}
	local := max(offset-base, 0)
	if atEnd {
		local = total
	}
	local = min(local, total)

	seen := 0
	for _, t := range texts {
		if local < seen+len(t.Data) {
			return dom.Position{Node: t, Offset: local - seen}, true
		}
		seen += len(t.Data)
	}
	last := texts[len(texts)-1]
	return dom.Position{Node: last, Offset: len(last.Data)}, true
}

// elementAt returns the annotated element with the smallest box containing
// pt. Among equal areas the later, more deeply nested element wins.
func (r *Resolver) elementAt(pt image.Point) (*sourcemap.Entry, bool) {
	var (
		best     *sourcemap.Entry
		bestArea int
	)
	for _, e := range r.smap.Entries() {
		rect, ok := r.geo.ElementRect(e.Node)
		if !ok || !pt.In(rect) {
			continue
		}
		area := rect.Dx() * rect.Dy()
		if best == nil || area <= bestArea {
			best, bestArea = e, area
		}
	}
	return best, best != nil
}

// localOffset counts the bytes of every text node under owner, whitespace-only
// ones included, that come before pos. Highlighted code keeps indentation and
// newlines in nodes of their own. A position outside owner counts as 0.
func localOffset(owner *html.Node, pos dom.Position) int {
	local, found := 0, false
	dom.Walk(owner, func(n *html.Node) bool {
		switch {
		case found:
			return false
		case n == pos.Node:
			found = true
			if n.Type == html.TextNode {
				local += min(pos.Offset, len(n.Data))
			}
			return false
		case n.Type == html.TextNode:
			local += len(n.Data)
		}
		return true
	})
	if !found {
		return 0
	}
	return local
}

func (r *Resolver) clamp(offset int) int {
	return min(max(offset, 0), r.length)
}
