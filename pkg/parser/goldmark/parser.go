// Package goldmark parses Markdown with goldmark and annotates every node that
// becomes a rendered element with its source and content byte ranges.
package goldmark

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Flavor identifies the Markdown flavor supported by the parser.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

// annotatorPriority runs the annotator after every other AST transformer.
const annotatorPriority = 10000

// Parser parses Markdown into a goldmark AST carrying position attributes and
// the matching annotated tree.
type Parser struct {
	flavor string
	md     goldmark.Markdown
}

// Document is the result of one parse.
type Document struct {
	// Snapshot holds the content, line index and annotated tree.
	Snapshot *mdast.Snapshot

	// AST is the goldmark tree with data-source-* attributes set, ready to render.
	AST ast.Node
}

type options struct {
	goldmark []goldmark.Option
	detect   func([]byte) string
	logger   *log.Logger
}

// Option configures a Parser.
type Option func(*options)

// WithGoldmarkOptions passes extra options (renderers, extensions) to goldmark.
func WithGoldmarkOptions(opts ...goldmark.Option) Option {
	return func(o *options) {
		o.goldmark = append(o.goldmark, opts...)
	}
}

// WithLanguageDetector sets the function used to name fenced code blocks
// that have no info string.
func WithLanguageDetector(detect func([]byte) string) Option {
	return func(o *options) {
		o.detect = detect
	}
}

// WithLogger sets the logger used to report degraded positions.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a new goldmark-based parser for the given flavor.
// Supported flavors are "commonmark" and "gfm".
// Invalid flavors default to "commonmark".
func New(flavor string, opts ...Option) *Parser {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}

	f := flavorOrDefault(flavor)
	return &Parser{
		flavor: f,
		md:     newGoldmarkInstance(f, &cfg),
	}
}

// Flavor returns the configured Markdown flavor.
func (p *Parser) Flavor() string {
	return p.flavor
}

// Markdown returns the underlying goldmark instance. Its renderer writes the
// position attributes the annotator sets.
//
//nolint:ireturn // goldmark.Markdown is an external interface type
func (p *Parser) Markdown() goldmark.Markdown {
	return p.md
}

// Parse converts raw Markdown bytes into an annotated Document.
// Returns an error only if the context is cancelled.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	snapshot := mdast.NewSnapshot(path, copyContent(content))

	pc := parser.NewContext()
	gmDoc := p.md.Parser().Parse(text.NewReader(snapshot.Content), parser.WithContext(pc))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	root, ok := pc.Get(treeKey).(*mdast.Node)
	if !ok || root == nil {
		root = mdast.NewDocument()
	}
	snapshot.Root = root

	return &Document{Snapshot: snapshot, AST: gmDoc}, nil
}

// flavorOrDefault returns the flavor if valid, otherwise defaults to CommonMark.
func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorCommonMark, FlavorGFM:
		return flavor
	default:
		return FlavorCommonMark
	}
}

// newGoldmarkInstance creates a configured goldmark.Markdown instance with the
// annotator installed.
//
//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string, cfg *options) goldmark.Markdown {
	var opts []goldmark.Option

	switch flavor {
	case FlavorGFM:
		opts = append(opts, goldmark.WithExtensions(extension.GFM))
	case FlavorCommonMark:
		// No extensions for pure CommonMark.
	}

	opts = append(opts, goldmark.WithParserOptions(
		parser.WithASTTransformers(
			util.Prioritized(&Annotator{detect: cfg.detect, logger: cfg.logger}, annotatorPriority),
		),
	))
	opts = append(opts, cfg.goldmark...)

	return goldmark.New(opts...)
}

// copyContent creates a copy of the content slice to ensure immutability.
func copyContent(content []byte) []byte {
	if content == nil {
		return []byte{}
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return cp
}
