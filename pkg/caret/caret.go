// Package caret draws the pseudo-cursor shown in the read-only preview.
package caret

import (
	"fmt"
	"image"

	"github.com/charmbracelet/log"
)

// Box is the caret geometry in viewport coordinates.
type Box struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Height int `json:"height"`
}

// BoxFromRect returns the caret at the top-left of r spanning its height.
func BoxFromRect(r image.Rectangle) Box {
	return Box{Top: r.Min.Y, Left: r.Min.X, Height: r.Dy()}
}

// Translate returns b moved down by dy.
func (b Box) Translate(dy int) Box {
	b.Top += dy
	return b
}

func (b Box) String() string {
	return fmt.Sprintf("caret(top=%d left=%d height=%d)", b.Top, b.Left, b.Height)
}

// State is the visibility of the caret.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Overlay is the surface the caret is drawn on.
type Overlay interface {
	Show(box Box)
	Move(box Box)
	Hide()
}

// Locator maps a source offset to a caret box against the current preview.
type Locator interface {
	ResolveOffset(offset int) (Box, bool)
}

// Renderer tracks the logical caret target and keeps the overlay in sync
// with it. It is not safe for concurrent use; the cursor sync loop owns it.
type Renderer struct {
	overlay Overlay
	logger  *log.Logger

	state     State
	box       Box
	target    int
	hasTarget bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer creates a hidden caret drawing on overlay.
func NewRenderer(overlay Overlay, opts ...Option) *Renderer {
	r := &Renderer{overlay: overlay, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current visibility.
func (r *Renderer) State() State {
	return r.state
}

// Box returns the last drawn box. It is meaningful only while Visible.
func (r *Renderer) Box() Box {
	return r.box
}

// Target returns the source offset the caret follows.
func (r *Renderer) Target() (int, bool) {
	return r.target, r.hasTarget
}

// MoveTo points the caret at offset. An offset that does not resolve hides it.
func (r *Renderer) MoveTo(loc Locator, offset int) {
	r.target, r.hasTarget = offset, true

	box, ok := loc.ResolveOffset(offset)
	if !ok {
		r.logger.Debug("caret hidden, offset unresolvable", "offset", offset)
		r.hide()
		return
	}
	r.draw(box)
}

// Scrolled recomputes the box after the preview scrolled by dy pixels. The
// caret never hides on scroll: if the target no longer resolves the box is
// carried along with the content.
func (r *Renderer) Scrolled(loc Locator, dy int) {
	if r.state != Visible || !r.hasTarget {
		return
	}

	box, ok := loc.ResolveOffset(r.target)
	if !ok {
		box = r.box.Translate(-dy)
	}
	r.draw(box)
}

// Rendered re-resolves the target against a freshly rendered preview.
func (r *Renderer) Rendered(loc Locator) {
	if !r.hasTarget {
		return
	}

	box, ok := loc.ResolveOffset(r.target)
	if !ok {
		r.logger.Debug("caret hidden after render", "offset", r.target)
		r.hide()
		return
	}
	r.draw(box)
}

// Clear hides the caret and forgets its target.
func (r *Renderer) Clear() {
	r.hasTarget = false
	r.hide()
}

func (r *Renderer) draw(box Box) {
	switch {
	case r.state == Hidden:
		r.overlay.Show(box)
	case box != r.box:
		r.overlay.Move(box)
	}
	r.state, r.box = Visible, box
}

func (r *Renderer) hide() {
	if r.state == Visible {
		r.overlay.Hide()
	}
	r.state = Hidden
}
