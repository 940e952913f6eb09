package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/render"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

const outputDirMode = 0o755

// ErrNoOutDir is returned when Options.OutDir is empty.
var ErrNoOutDir = errors.New("export: output directory required")

// Exporter renders files with a shared renderer.
type Exporter struct {
	renderer *render.Renderer
}

// New creates an Exporter. r must be safe for concurrent use, as
// render.Renderer is.
func New(r *render.Renderer) *Exporter {
	return &Exporter{renderer: r}
}

// job is a file and the output path it maps to.
type job struct {
	path, output string
}

// Run discovers files under opts.Paths and exports them concurrently.
// Outcomes come back in path order whatever order workers finish in.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.OutDir == "" {
		return nil, ErrNoOutDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: make([]FileOutcome, 0, len(files))}
	result.Stats.FilesDiscovered = len(files)
	if len(files) == 0 {
		return result, nil
	}

	var styleSheet string
	if opts.Page {
		styleSheet, err = e.renderer.StyleSheet()
		if err != nil {
			return nil, fmt.Errorf("highlight stylesheet: %w", err)
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(files))

	workCh := make(chan job)
	outCh := make(chan FileOutcome)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workCh {
				outcome := e.exportFile(ctx, j, opts, styleSheet)
				select {
				case <-ctx.Done():
					return
				case outCh <- outcome:
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, path := range files {
			select {
			case <-ctx.Done():
				return
			case workCh <- job{path: path, output: outputPath(workDir, opts.OutDir, path)}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	outcomes := make(map[string]FileOutcome, len(files))
	for outcome := range outCh {
		outcomes[outcome.Path] = outcome
		logOutcome(logger, outcome)
	}
	for _, path := range files {
		if outcome, ok := outcomes[path]; ok {
			result.accumulate(outcome)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}
	return result, nil
}

func (e *Exporter) exportFile(ctx context.Context, j job, opts Options, styleSheet string) FileOutcome {
	outcome := FileOutcome{Path: j.path, Output: j.output}

	source, _, err := fsutil.ReadFile(ctx, j.path)
	if err != nil {
		outcome.Error = err
		return outcome
	}
	res, err := e.renderer.Render(ctx, source)
	if err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Failed = res.Failed

	out := []byte(res.HTML)
	if opts.Page {
		out, err = Page(Title(res.Root, filepath.Base(j.path)), res.HTML, styleSheet, opts.Layout)
		if err != nil {
			outcome.Error = err
			return outcome
		}
	}

	root, err := dom.ParseFragment(res.HTML)
	if err != nil {
		outcome.Error = fmt.Errorf("parse rendered html: %w", err)
		return outcome
	}
	smap := sourcemap.Build(root)
	outcome.Entries = smap.Len()

	if err := os.MkdirAll(filepath.Dir(j.output), outputDirMode); err != nil {
		outcome.Error = fmt.Errorf("create output directory: %w", err)
		return outcome
	}
	written, err := fsutil.WriteAtomicIfChanged(ctx, j.output, out, 0)
	if err != nil {
		outcome.Error = err
		return outcome
	}
	outcome.Written = written

	if opts.SourceMaps {
		data, err := SourceMapJSON(smap)
		if err != nil {
			outcome.Error = err
			return outcome
		}
		outcome.MapOutput = strings.TrimSuffix(j.output, ".html") + ".map.json"
		mapWritten, err := fsutil.WriteAtomicIfChanged(ctx, outcome.MapOutput, data, 0)
		if err != nil {
			outcome.Error = err
			return outcome
		}
		outcome.Written = outcome.Written || mapWritten
	}

	return outcome
}

// outputPath mirrors path under outDir with an .html extension. Files
// outside workDir land at the top of outDir.
func outputPath(workDir, outDir, path string) string {
	rel, err := filepath.Rel(workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	return filepath.Join(outDir, rel)
}

func logOutcome(logger *log.Logger, o FileOutcome) {
	switch {
	case o.Error != nil:
		logger.Error("export failed", "path", o.Path, "error", o.Error)
	case o.Failed:
		logger.Warn("document failed to render", "path", o.Path, "output", o.Output)
	case o.Written:
		logger.Debug("exported", "path", o.Path, "output", o.Output, "entries", o.Entries)
	default:
		logger.Debug("unchanged", "path", o.Path, "output", o.Output)
	}
}
