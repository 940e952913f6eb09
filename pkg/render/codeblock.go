package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/mdsync/pkg/langdetect"
	gm "github.com/yaklabco/mdsync/pkg/parser/goldmark"
)

// codeRendererPriority registers the code block renderer ahead of goldmark's
// default HTML renderer.
const codeRendererPriority = 100

// SubClass marks placeholders filled in by a SubRenderer after sanitizing.
const SubClass = "mdsync-sub"

// AttrSub names the sub-renderer a placeholder is addressed to.
const AttrSub = "data-sub"

// positionOnly lets RenderAttributes through data-* attributes only.
var positionOnly = util.NewBytesFilter()

// codeRenderer writes fenced and indented code blocks. Position attributes are
// written on the <pre>, highlighted lines come from chroma, and mermaid/math
// fences become sub-renderer placeholders.
type codeRenderer struct {
	highlight bool
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newCodeRenderer(highlight bool, style *chroma.Style) *codeRenderer {
	return &codeRenderer{
		highlight: highlight,
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCode)
	reg.Register(ast.KindCodeBlock, r.renderCode)
}

func (r *codeRenderer) renderCode(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := range lines.Len() {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	lang := codeLanguage(node)

	if langdetect.IsSubLanguage(lang) {
		_, _ = fmt.Fprintf(w, `<div class="%s" %s="%s"`, SubClass, AttrSub, strings.ToLower(lang))
		html.RenderAttributes(w, node, positionOnly)
		_, _ = w.WriteString("><pre><code>")
		html.DefaultWriter.RawWrite(w, code.Bytes())
		_, _ = w.WriteString("</code></pre></div>\n")
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<pre class="chroma"`)
	html.RenderAttributes(w, node, positionOnly)
	_, _ = w.WriteString("><code")
	if lang != "" && lang != langdetect.Text {
		_, _ = fmt.Fprintf(w, ` class="language-%s"`, util.EscapeHTML([]byte(lang)))
	}
	_ = w.WriteByte('>')

	if !r.highlight || !r.writeHighlighted(w, lang, code.String()) {
		html.DefaultWriter.RawWrite(w, code.Bytes())
	}

	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

// codeLanguage returns the language the annotator resolved for node.
func codeLanguage(node ast.Node) string {
	v, ok := node.AttributeString(gm.AttrLanguage)
	if !ok {
		return ""
	}
	switch lang := v.(type) {
	case string:
		return lang
	case []byte:
		return string(lang)
	}
	return ""
}

// writeHighlighted formats code with chroma. It reports false when no lexer
// matches or tokenizing fails, leaving w untouched.
func (r *codeRenderer) writeHighlighted(w util.BufWriter, lang, code string) bool {
	if lang == "" || lang == langdetect.Text {
		return false
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return false
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return false
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return false
	}
	_, _ = w.Write(buf.Bytes())
	return true
}

// writeCSS writes the stylesheet for the highlighting classes.
func (r *codeRenderer) writeCSS(buf *bytes.Buffer) error {
	if err := r.formatter.WriteCSS(buf, r.style); err != nil {
		return fmt.Errorf("write highlight css: %w", err)
	}
	return nil
}
