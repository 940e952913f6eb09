// Package server hosts a live preview of one Markdown file: the rendered
// page, source map and caret queries over HTTP, and change notifications over
// Server-Sent Events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/cursorsync"
	"github.com/yaklabco/mdsync/pkg/editor"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/render"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Path is the Markdown file to preview.
	Path string

	// Addr is the listen address for Run.
	Addr string

	// WatchDebounce coalesces bursts of file events. Defaults to 100ms.
	WatchDebounce time.Duration

	Render render.Options
	Sync   cursorsync.Options
	Logger *log.Logger
}

// Server is a live preview host.
type Server struct {
	opts     Options
	logger   *log.Logger
	buf      *editor.Buffer
	renderer *render.Renderer
	ctrl     *cursorsync.Controller
	broker   *Broker
	handler  http.Handler

	// info is the last snapshot loaded into buf; only the watcher goroutine
	// touches it after New.
	info *fsutil.FileInfo
}

// New reads the file at opts.Path and starts syncing it with a preview.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.WatchDebounce <= 0 {
		opts.WatchDebounce = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Component(ctx, "server")
	}

	content, info, err := fsutil.ReadFile(ctx, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open preview source: %w", err)
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		buf:    editor.NewBuffer(string(content)),
		broker: NewBroker(),
		info:   info,
	}

	if opts.Render.Logger == nil {
		opts.Render.Logger = logger
	}
	s.renderer = render.New(opts.Render)

	syncOpts := opts.Sync
	syncOpts.Overlay = eventOverlay{broker: s.broker}
	syncOpts.OnHighlight = s.publishHighlight
	syncOpts.OnRender = s.publishRender
	if syncOpts.Logger == nil {
		syncOpts.Logger = logger
	}
	s.ctrl = cursorsync.New(s.buf, s.renderer, syncOpts)
	s.handler = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving the preview.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Buffer returns the text being previewed.
func (s *Server) Buffer() *editor.Buffer {
	return s.buf
}

// Controller returns the cursor sync controller driving the preview.
func (s *Server) Controller() *cursorsync.Controller {
	return s.ctrl
}

// Reload re-reads the source file and reports whether its content changed.
func (s *Server) Reload(ctx context.Context) (bool, error) {
	content, info, err := fsutil.ReadFile(ctx, s.opts.Path)
	if err != nil {
		return false, err
	}
	if info.SameContent(s.info) {
		return false, nil
	}
	s.info = info
	s.buf.SetValue(string(content))
	return true, nil
}

func (s *Server) reload(ctx context.Context) {
	changed, err := s.Reload(ctx)
	switch {
	case errors.Is(err, fsutil.ErrNotFound):
		// Mid-save rename; the Create that follows triggers another reload.
		s.logger.Debug("preview source missing", logging.FieldPath, s.opts.Path)
	case err != nil:
		s.logger.Warn("reload failed", logging.FieldPath, s.opts.Path, logging.FieldError, err)
	case changed:
		s.logger.Info("source changed", logging.FieldPath, s.opts.Path, logging.FieldGeneration, s.ctrl.Latest()+1)
	}
}

// Run serves the preview on opts.Addr and re-renders on file changes until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watchFile(gCtx, s.opts.Path, s.opts.WatchDebounce, s.logger, func() { s.reload(gCtx) })
	})

	g.Go(func() error {
		s.logger.Info("preview listening", logging.FieldAddr, s.opts.Addr, logging.FieldPath, s.opts.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		// Stop SSE streams first; Shutdown waits for open handlers.
		s.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http shutdown", logging.FieldError, err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	return err
}

// Close stops the controller and disconnects clients.
func (s *Server) Close() {
	s.ctrl.Close()
	s.broker.Close()
}
