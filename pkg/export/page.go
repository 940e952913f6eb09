package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/yaklabco/mdsync/pkg/caret"
	"github.com/yaklabco/mdsync/pkg/layout"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { max-width: {{.Layout.Width}}px; margin: 0 auto; padding: {{.Layout.Margin}}px; font-size: {{.Layout.FontSize}}px; line-height: {{.Layout.LineHeight}}; }
{{.CaretCSS}}
{{.StyleSheet}}
</style>
</head>
<body>
<article class="mdsync-preview">
{{.Fragment}}
</article>
</body>
</html>
`))

type pageData struct {
	Title      string
	Layout     layout.Options
	CaretCSS   template.CSS
	StyleSheet template.CSS
	Fragment   template.HTML
}

// Page wraps a sanitized fragment in a standalone HTML document. styleSheet
// is the highlighting CSS from render.Renderer.StyleSheet.
func Page(title, fragment, styleSheet string, opts layout.Options) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Title:      title,
		Layout:     opts,
		CaretCSS:   template.CSS(caret.CSS),
		StyleSheet: template.CSS(styleSheet),
		Fragment:   template.HTML(fragment),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Title returns the text of the highest-ranked heading in root, the first
// one on a tie, or fallback when no heading holds text.
func Title(root *mdast.Node, fallback string) string {
	title, level := fallback, 0
	for _, heading := range mdast.FindByKind(root, mdast.NodeHeading) {
		if level != 0 && heading.Level() >= level {
			continue
		}
		if text := headingText(heading); text != "" {
			title, level = text, heading.Level()
		}
	}
	return title
}

func headingText(heading *mdast.Node) string {
	var b strings.Builder
	for _, leaf := range mdast.FindAll(heading, func(n *mdast.Node) bool {
		return !n.HasChildren() && n.Inline != nil
	}) {
		b.Write(leaf.Inline.Text)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SourceMapJSON encodes every entry of m, in document order, as indented JSON.
func SourceMapJSON(m *sourcemap.Map) ([]byte, error) {
	entries := make([]sourcemap.Entry, 0, m.Len())
	for _, e := range m.Entries() {
		entries = append(entries, *e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode source map: %w", err)
	}
	return append(data, '\n'), nil
}
