// Package render turns Markdown into sanitized preview HTML whose elements
// carry the source ranges they were rendered from.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/mdsync/pkg/langdetect"
	"github.com/yaklabco/mdsync/pkg/mdast"
	gm "github.com/yaklabco/mdsync/pkg/parser/goldmark"
)

// ErrorClass marks the placeholder rendered in place of a failed document.
const ErrorClass = "mdsync-error"

// Result is the output of one render.
type Result struct {
	// Generation is set by Pipeline; zero for direct Render calls.
	Generation uint64

	// HTML is the sanitized fragment, or an error placeholder when Failed.
	HTML string

	// Root is the annotated tree, nil when Failed.
	Root *mdast.Node

	// Source is the exact text that was rendered.
	Source []byte

	// Failed marks placeholder output; Err holds the cause.
	Failed bool
	Err    error
}

// Options configures a Renderer.
type Options struct {
	Flavor         string
	Highlight      bool
	HighlightStyle string
	DetectLanguage bool
	SubRenderers   []SubRenderer
	Logger         *log.Logger
}

// DefaultOptions returns GFM with highlighting, detection and both built-in
// sub-renderers.
func DefaultOptions() Options {
	return Options{
		Flavor:         gm.FlavorGFM,
		Highlight:      true,
		HighlightStyle: "github",
		DetectLanguage: true,
		SubRenderers:   []SubRenderer{Mermaid{}, Math{}},
	}
}

// Renderer runs parse, annotate, HTML, sanitize and sub-render for a document.
// It is safe for concurrent use.
type Renderer struct {
	parser *gm.Parser
	md     goldmark.Markdown
	code   *codeRenderer
	policy *bluemonday.Policy
	subs   map[string]SubRenderer
	logger *log.Logger
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	code := newCodeRenderer(opts.Highlight, styles.Get(opts.HighlightStyle))

	parserOpts := []gm.Option{
		gm.WithLogger(logger),
		gm.WithGoldmarkOptions(goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(code, codeRendererPriority)),
		)),
	}
	if opts.DetectLanguage {
		parserOpts = append(parserOpts, gm.WithLanguageDetector(langdetect.Detect))
	}

	p := gm.New(opts.Flavor, parserOpts...)

	subs := make(map[string]SubRenderer, len(opts.SubRenderers))
	for _, sub := range opts.SubRenderers {
		subs[sub.Name()] = sub
	}

	return &Renderer{
		parser: p,
		md:     p.Markdown(),
		code:   code,
		policy: NewPolicy(),
		subs:   subs,
		logger: logger,
	}
}

// Render renders source. A failing pipeline stage yields a Result with Failed
// set and an error placeholder as HTML; the returned error is non-nil only
// when ctx is done.
func (r *Renderer) Render(ctx context.Context, source []byte) (result *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cause := fmt.Errorf("render panicked: %v", rec)
			r.logger.Error("render failed", "error", cause)
			result, err = failed(source, cause), nil
		}
	}()

	doc, err := r.parser.Parse(ctx, "", source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, doc.Snapshot.Content, doc.AST); err != nil {
		r.logger.Error("render failed", "error", err)
		return failed(doc.Snapshot.Content, fmt.Errorf("render html: %w", err)), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	clean := r.policy.SanitizeBytes(buf.Bytes())

	out, err := r.runSubRenderers(ctx, string(clean))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Error("render failed", "error", err)
		return failed(doc.Snapshot.Content, err), nil
	}

	return &Result{
		HTML:   out,
		Root:   doc.Snapshot.Root,
		Source: doc.Snapshot.Content,
	}, nil
}

// StyleSheet returns the CSS for the highlighting classes in rendered code.
func (r *Renderer) StyleSheet() (string, error) {
	var buf bytes.Buffer
	if err := r.code.writeCSS(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Placeholder returns the inline error shown in place of a document that
// failed to render.
func Placeholder(cause error) string {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return `<div class="` + ErrorClass + `" role="alert"><strong>Preview failed to render</strong><pre>` +
		html.EscapeString(msg) + `</pre></div>`
}

func failed(source []byte, cause error) *Result {
	return &Result{
		HTML:   Placeholder(cause),
		Source: source,
		Failed: true,
		Err:    cause,
	}
}
