// Package layout computes document-space geometry for a rendered preview:
// block boxes, word-wrapped text fragments, and caret positions measured with
// the Go fonts.
package layout

import (
	"image"
	"sort"

	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
)

// Options configures page geometry. Sizes are in pixels.
type Options struct {
	Width      int
	Margin     int
	FontSize   float64
	LineHeight float64
}

// DefaultOptions returns an 800px page with 16px text.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Margin:     16,
		FontSize:   16,
		LineHeight: 1.4,
	}
}

// Fragment is a run of one text node placed on a single line.
type Fragment struct {
	Node *html.Node

	// Start and End are byte offsets into Node.Data.
	Start, End int

	Rect image.Rectangle

	// Offsets holds the byte offset of every caret boundary in the fragment
	// and Stops the x coordinate of each.
	Offsets []int
	Stops   []int
}

// Layout is the geometry of one rendered document.
type Layout struct {
	opts   Options
	frags  []Fragment
	byNode map[*html.Node][]int
	boxes  map[*html.Node]image.Rectangle
	blocks map[*html.Node]bool
	height int
}

// New lays out the tree under root.
func New(root *html.Node, opts Options) (*Layout, error) {
	opts = withDefaults(opts)

	set, err := loadFonts()
	if err != nil {
		return nil, err
	}

	l := &Layout{
		opts:   opts,
		byNode: make(map[*html.Node][]int),
		boxes:  make(map[*html.Node]image.Rectangle),
		blocks: make(map[*html.Node]bool),
	}

	e := &engine{l: l, faces: newFaces(set), y: opts.Margin}
	if root != nil {
		e.children(root, opts.Margin, opts.Width-opts.Margin, style{size: opts.FontSize})
	}
	l.height = e.y + opts.Margin
	l.unionInlineBoxes(e.atoms)

	return l, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Margin < 0 || opts.Margin*2 >= opts.Width {
		opts.Margin = def.Margin
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = def.LineHeight
	}
	return opts
}

// Options returns the options the layout was computed with.
func (l *Layout) Options() Options {
	return l.opts
}

// Height returns the document height including margins.
func (l *Layout) Height() int {
	return l.height
}

// Fragments returns the placed text fragments in document order.
func (l *Layout) Fragments() []Fragment {
	return l.frags
}

// ElementRect returns the box of an element. Inline elements get the union
// of their fragments; elements with no placed content report false.
func (l *Layout) ElementRect(n *html.Node) (image.Rectangle, bool) {
	r, ok := l.boxes[n]
	return r, ok
}

// CaretAt returns the caret position nearest pt on the line containing it.
func (l *Layout) CaretAt(pt image.Point) (dom.Position, bool) {
	best, bestDist := -1, 0
	for i := range l.frags {
		r := l.frags[i].Rect
		if pt.Y < r.Min.Y || pt.Y >= r.Max.Y {
			continue
		}
		// Fragments are half-open, so a point on a shared edge belongs to
		// the fragment that starts there.
		dist := 0
		switch {
		case pt.X < r.Min.X:
			dist = r.Min.X - pt.X
		case pt.X >= r.Max.X:
			dist = pt.X - r.Max.X + 1
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return dom.Position{}, false
	}

	f := &l.frags[best]
	return dom.Position{Node: f.Node, Offset: f.Offsets[f.boundaryAt(pt.X)]}, true
}

// CaretRect returns a zero-width rectangle spanning the line height at pos.
// A position between two fragments belongs to the later one.
func (l *Layout) CaretRect(pos dom.Position) (image.Rectangle, bool) {
	var chosen *Fragment
	for _, i := range l.byNode[pos.Node] {
		f := &l.frags[i]
		if pos.Offset >= f.Start && pos.Offset < f.End {
			chosen = f
			break
		}
		if pos.Offset == f.End {
			chosen = f
		}
	}
	if chosen == nil {
		return image.Rectangle{}, false
	}

	// Offsets inside a multi-byte rune snap to the rune start.
	j := sort.SearchInts(chosen.Offsets, pos.Offset+1) - 1
	if j < 0 {
		j = 0
	}
	x := chosen.Stops[j]
	return image.Rect(x, chosen.Rect.Min.Y, x, chosen.Rect.Max.Y), true
}

// boundaryAt applies the midpoint rule: a point left of a glyph's center maps
// to the boundary before the glyph.
func (f *Fragment) boundaryAt(x int) int {
	for i := 0; i+1 < len(f.Stops); i++ {
		if x*2 < f.Stops[i]+f.Stops[i+1] {
			return i
		}
	}
	return len(f.Stops) - 1
}

type atom struct {
	node *html.Node
	rect image.Rectangle
}

func (l *Layout) unionInlineBoxes(atoms []atom) {
	for _, a := range atoms {
		for p := a.node.Parent; p != nil && !l.blocks[p]; p = p.Parent {
			if p.Type != html.ElementNode {
				continue
			}
			if r, ok := l.boxes[p]; ok {
				l.boxes[p] = r.Union(a.rect)
			} else {
				l.boxes[p] = a.rect
			}
		}
	}
}
