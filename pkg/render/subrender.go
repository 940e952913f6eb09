package render

import (
	"context"
	"fmt"
	"html"
	"strings"

	"golang.org/x/sync/errgroup"

	nethtml "golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/langdetect"
)

// maxSubRenders bounds concurrent sub-renderer calls per document.
const maxSubRenders = 4

// SubRenderer renders the body of a math or diagram block into HTML. Output
// is inserted after sanitizing and is trusted.
type SubRenderer interface {
	Name() string
	Render(ctx context.Context, code string) (string, error)
}

// SubRendererFunc adapts a function to a SubRenderer.
type SubRendererFunc struct {
	Lang string
	Fn   func(ctx context.Context, code string) (string, error)
}

// Name implements SubRenderer.
func (f SubRendererFunc) Name() string { return f.Lang }

// Render implements SubRenderer.
func (f SubRendererFunc) Render(ctx context.Context, code string) (string, error) {
	return f.Fn(ctx, code)
}

// Mermaid hands diagrams to mermaid.js in the page.
type Mermaid struct{}

// Name implements SubRenderer.
func (Mermaid) Name() string { return langdetect.Mermaid }

// Render implements SubRenderer.
func (Mermaid) Render(_ context.Context, code string) (string, error) {
	return `<pre class="mermaid">` + html.EscapeString(code) + `</pre>`, nil
}

// Math hands display math to KaTeX auto-render in the page.
type Math struct{}

// Name implements SubRenderer.
func (Math) Name() string { return langdetect.Math }

// Render implements SubRenderer.
func (Math) Render(_ context.Context, code string) (string, error) {
	body := strings.TrimSpace(code)
	body = strings.TrimPrefix(body, "$$")
	body = strings.TrimSuffix(body, "$$")
	return `<div class="math display">\[` + html.EscapeString(strings.TrimSpace(body)) + `\]</div>`, nil
}

// SubRenderersByName returns the built-in sub-renderers for the given names.
// Unknown names are reported as an error.
func SubRenderersByName(names []string) ([]SubRenderer, error) {
	out := make([]SubRenderer, 0, len(names))
	for _, name := range names {
		switch name {
		case langdetect.Mermaid:
			out = append(out, Mermaid{})
		case langdetect.Math:
			out = append(out, Math{})
		default:
			return nil, fmt.Errorf("unknown sub-renderer %q", name)
		}
	}
	return out, nil
}

type subJob struct {
	node     *nethtml.Node
	renderer SubRenderer
	code     string
	output   string
	ok       bool
}

// runSubRenderers fills sub-renderer placeholders in sanitized HTML. A
// placeholder whose renderer fails keeps its escaped source.
func (r *Renderer) runSubRenderers(ctx context.Context, fragment string) (string, error) {
	if len(r.subs) == 0 || !strings.Contains(fragment, SubClass) {
		return fragment, nil
	}

	root, err := dom.ParseFragment(fragment)
	if err != nil {
		return "", err
	}

	var jobs []*subJob
	for _, node := range dom.Elements(root, func(n *nethtml.Node) bool { return dom.HasClass(n, SubClass) }) {
		lang, _ := dom.Attr(node, AttrSub)
		sub, ok := r.subs[lang]
		if !ok {
			continue
		}
		jobs = append(jobs, &subJob{node: node, renderer: sub, code: dom.TextContent(node)})
	}
	if len(jobs) == 0 {
		return fragment, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxSubRenders)
	for _, job := range jobs {
		group.Go(func() error {
			out, err := safeSubRender(gctx, job.renderer, job.code)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Warn("sub-renderer failed", "renderer", job.renderer.Name(), "error", err)
				return nil
			}
			job.output, job.ok = out, true
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", fmt.Errorf("sub-renderers: %w", err)
	}

	for _, job := range jobs {
		if !job.ok {
			continue
		}
		nodes, err := nethtml.ParseFragment(strings.NewReader(job.output), job.node)
		if err != nil {
			r.logger.Warn("sub-renderer output unparseable", "renderer", job.renderer.Name(), "error", err)
			continue
		}
		for c := job.node.FirstChild; c != nil; c = job.node.FirstChild {
			job.node.RemoveChild(c)
		}
		for _, n := range nodes {
			job.node.AppendChild(n)
		}
	}

	return dom.RenderChildren(root)
}

func safeSubRender(ctx context.Context, sub SubRenderer, code string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sub-renderer %s panicked: %v", sub.Name(), rec)
		}
	}()
	return sub.Render(ctx, code)
}
