// Package cursorsync keeps the editor and the preview in step: editor
// cursor moves drive the preview caret, preview clicks and drags set the
// editor cursor and selection, and scrolling on either side scrolls the
// other.
package cursorsync

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdsync/pkg/caret"
	"github.com/yaklabco/mdsync/pkg/editor"
	"github.com/yaklabco/mdsync/pkg/preview"
	"github.com/yaklabco/mdsync/pkg/render"
	"github.com/yaklabco/mdsync/pkg/resolve"
)

// ErrClosed is returned by input methods after Close.
var ErrClosed = errors.New("cursor sync controller closed")

// Options configures a Controller.
type Options struct {
	Preview preview.Options

	// ScrollGuard is how long a programmatic scroll suppresses the echo
	// scroll event it causes.
	ScrollGuard time.Duration

	// Debounce delays re-rendering after a text change. Zero renders at once.
	Debounce time.Duration

	// Overlay draws the caret. Nil discards caret drawing.
	Overlay caret.Overlay

	// OnHighlight receives the id of the innermost block holding the editor
	// cursor, or "" when there is none.
	OnHighlight func(id string)

	// OnRender is called on the loop after a render is displayed.
	OnRender func(result *render.Result)

	Clock  Clock
	Logger *log.Logger
}

// DefaultOptions returns a 100ms scroll guard and no render debounce.
func DefaultOptions() Options {
	return Options{
		Preview:     preview.DefaultOptions(),
		ScrollGuard: 100 * time.Millisecond,
	}
}

// State is a point-in-time view of the controller.
type State struct {
	Generation       uint64
	Caret            caret.State
	CaretBox         caret.Box
	Highlight        string
	PreviewScrollTop int
	Failed           bool
}

// Controller owns the preview and the caret. A single goroutine runs every
// state change; public methods queue work for it.
type Controller struct {
	opts     Options
	logger   *log.Logger
	buf      *editor.Buffer
	pipeline *render.Pipeline
	pane     *preview.Pane
	caret    *caret.Renderer
	resolver *resolve.Resolver

	highlight     string
	guardPreview  int
	guardEditor   int
	debounceTimer Timer

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	rendered chan uint64
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	closed   atomic.Bool
	unsub    func()
}

// New starts a controller syncing buf with a preview rendered by r.
func New(buf *editor.Buffer, r *render.Renderer, opts Options) *Controller {
	if opts.ScrollGuard <= 0 {
		opts.ScrollGuard = DefaultOptions().ScrollGuard
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Overlay == nil {
		opts.Overlay = nopOverlay{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Preview.Logger == nil {
		opts.Preview.Logger = logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	pane := preview.New(opts.Preview)

	c := &Controller{
		opts:     opts,
		logger:   logger,
		buf:      buf,
		pipeline: render.NewPipeline(r, 4),
		pane:     pane,
		caret:    caret.NewRenderer(opts.Overlay, caret.WithLogger(logger)),
		resolver: pane.Resolver(),
		wake:     make(chan struct{}, 1),
		rendered: make(chan uint64, 16),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}

	c.unsub = buf.Subscribe(func(ev editor.Event) {
		c.post(func() { c.editorEvent(ev) })
	})

	go c.run()
	c.post(c.submit)
	return c
}

// Close stops the loop and abandons in-flight renders.
func (c *Controller) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.unsub()
		c.cancel()
	}
	<-c.stopped
}

// Rendered delivers the generation of each render as it is displayed.
// Deliveries are dropped when nobody is reading.
func (c *Controller) Rendered() <-chan uint64 {
	return c.rendered
}

// Latest returns the newest generation submitted for rendering.
func (c *Controller) Latest() uint64 {
	return c.pipeline.Latest()
}

func (c *Controller) post(fn func()) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		fn := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		fn()
	}
}

func (c *Controller) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Controller) run() {
	defer close(c.stopped)

	for {
		select {
		case <-c.ctx.Done():
			if c.debounceTimer != nil {
				c.debounceTimer.Stop()
			}
			return
		case <-c.wake:
			c.drain()
		case result := <-c.pipeline.Results():
			c.applyRender(result)
		}
	}
}

// call queues fn and waits until the loop has run it.
func (c *Controller) call(fn func()) error {
	if c.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	c.post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-c.stopped:
		return ErrClosed
	}
}

// Flush waits until every queued input, and every input those caused, has
// been handled.
func (c *Controller) Flush() error {
	if c.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	var settle func()
	settle = func() {
		if c.pending() > 0 {
			c.post(settle)
			return
		}
		close(done)
	}
	c.post(settle)

	select {
	case <-done:
		return nil
	case <-c.stopped:
		return ErrClosed
	}
}

// State returns a snapshot of the controller's state.
func (c *Controller) State() (State, error) {
	var st State
	err := c.call(func() {
		st = State{
			Generation:       c.pane.Result().Generation,
			Caret:            c.caret.State(),
			CaretBox:         c.caret.Box(),
			Highlight:        c.highlight,
			PreviewScrollTop: c.pane.ScrollTop(),
			Failed:           c.pane.Result().Failed,
		}
	})
	return st, err
}

// WithPane runs fn on the loop with the pane on display.
func (c *Controller) WithPane(fn func(p *preview.Pane)) error {
	return c.call(func() { fn(c.pane) })
}

// Click handles a click in the preview at viewport point pt.
func (c *Controller) Click(pt image.Point) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.post(func() {
		offset, ok := c.resolver.ResolveClick(pt)
		if !ok {
			return
		}
		c.buf.SetCursorOffset(offset)
	})
	return nil
}

// Drag handles a selection dragged in the preview from anchor to focus.
func (c *Controller) Drag(anchor, focus image.Point) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.post(func() {
		start, end, ok := c.resolver.ResolveSelection(anchor, focus)
		if !ok {
			return
		}
		if start == end {
			c.buf.SetCursorOffset(start)
			return
		}
		c.buf.SetSelection(start, end)
	})
	return nil
}

// PreviewKey handles a key pressed while the preview has focus. It reports
// whether the key is a navigation key; other keys are discarded and never
// reach the editor.
func (c *Controller) PreviewKey(key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if !IsNavigationKey(key) {
		c.logger.Debug("discarded preview keystroke", "key", key)
		return false, nil
	}
	c.post(func() {
		text := c.buf.Value()
		c.buf.SetCursorOffset(navigate(text, c.buf.CursorOffset(), key))
	})
	return true, nil
}

// PreviewScroll handles the preview scrolling to scrollTop.
func (c *Controller) PreviewScroll(scrollTop int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.post(func() { c.previewScrolled(scrollTop) })
	return nil
}

func (c *Controller) previewScrolled(scrollTop int) {
	delta := c.pane.SetScrollTop(scrollTop)
	if delta != 0 {
		c.caret.Scrolled(c.resolver, delta)
	}

	if c.guardPreview > 0 {
		c.logger.Debug("ignored echo scroll", "side", "preview", "scroll_top", scrollTop)
		return
	}
	if delta == 0 {
		return
	}

	frac := 0.0
	if maxScroll := c.pane.MaxScroll(); maxScroll > 0 {
		frac = float64(c.pane.ScrollTop()) / float64(maxScroll)
	}
	line := int(math.Round(frac * float64(max(c.buf.LineCount()-1, 0))))

	c.guard(&c.guardEditor)
	c.buf.SetScrollTop(line)
}

func (c *Controller) editorScrolled(line int) {
	if c.guardEditor > 0 {
		c.logger.Debug("ignored echo scroll", "side", "editor", "line", line)
		return
	}

	frac := 0.0
	if last := c.buf.LineCount() - 1; last > 0 {
		frac = float64(line) / float64(last)
	}
	target := int(math.Round(frac * float64(c.pane.MaxScroll())))

	c.guard(&c.guardPreview)
	delta := c.pane.SetScrollTop(target)
	if delta != 0 {
		c.caret.Scrolled(c.resolver, delta)
	}
}

// guard raises a scroll guard and lowers it after the guard period.
func (c *Controller) guard(counter *int) {
	*counter++
	c.opts.Clock.AfterFunc(c.opts.ScrollGuard, func() {
		c.post(func() { *counter-- })
	})
}

func (c *Controller) editorEvent(ev editor.Event) {
	switch ev.Kind {
	case editor.EventText:
		c.scheduleRender()
	case editor.EventCursor, editor.EventSelection:
		c.caret.MoveTo(c.resolver, ev.Cursor)
		c.updateHighlight(ev.Cursor)
	case editor.EventScroll:
		c.editorScrolled(ev.ScrollTop)
	}
}

func (c *Controller) updateHighlight(offset int) {
	id := ""
	if e, ok := c.pane.SourceMap().InnermostBlock(offset); ok {
		id = e.ID
	}
	if id == c.highlight {
		return
	}
	c.highlight = id
	if c.opts.OnHighlight != nil {
		c.opts.OnHighlight(id)
	}
}

func (c *Controller) scheduleRender() {
	if c.opts.Debounce <= 0 {
		c.submit()
		return
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = c.opts.Clock.AfterFunc(c.opts.Debounce, func() {
		c.post(c.submit)
	})
}

func (c *Controller) submit() {
	gen := c.pipeline.Submit(c.ctx, []byte(c.buf.Value()))
	c.logger.Debug("render submitted", "generation", gen)
}

func (c *Controller) applyRender(result *render.Result) {
	if !c.pipeline.IsCurrent(result.Generation) {
		c.logger.Debug("discarded stale render", "generation", result.Generation, "latest", c.pipeline.Latest())
		return
	}

	if err := c.pane.Load(result); err != nil {
		c.logger.Error("preview load failed", "generation", result.Generation, "error", err)
		return
	}
	c.resolver = c.pane.Resolver()
	c.caret.Rendered(c.resolver)
	if _, ok := c.caret.Target(); ok {
		c.updateHighlight(c.buf.CursorOffset())
	}

	if c.opts.OnRender != nil {
		c.opts.OnRender(result)
	}

	select {
	case c.rendered <- result.Generation:
	default:
	}
}

type nopOverlay struct{}

func (nopOverlay) Show(caret.Box) {}
func (nopOverlay) Move(caret.Box) {}
func (nopOverlay) Hide()          {}
