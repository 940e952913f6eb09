package goldmark

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

func TestParser_New(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flavor     string
		wantFlavor string
	}{
		{"commonmark", FlavorCommonMark, FlavorCommonMark},
		{"gfm", FlavorGFM, FlavorGFM},
		{"invalid defaults to commonmark", "invalid", FlavorCommonMark},
		{"empty defaults to commonmark", "", FlavorCommonMark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := New(tt.flavor).Flavor(); got != tt.wantFlavor {
				t.Errorf("Flavor() = %q, want %q", got, tt.wantFlavor)
			}
		})
	}
}

func TestParser_Parse_CopiesContent(t *testing.T) {
	t.Parallel()

	content := []byte("# Hello\n\nWorld")
	doc, err := New(FlavorCommonMark).Parse(context.Background(), "test.md", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.Snapshot.Path != "test.md" {
		t.Errorf("Path = %q", doc.Snapshot.Path)
	}
	if &doc.Snapshot.Content[0] == &content[0] {
		t.Error("content should be copied")
	}
	if doc.Snapshot.Root == nil || doc.Snapshot.Root.ChildCount() != 2 {
		t.Fatalf("expected a document with two blocks")
	}
	if doc.AST == nil {
		t.Error("expected goldmark AST")
	}
}

func TestParser_Parse_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(FlavorGFM).Parse(ctx, "", []byte("text"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParser_Parse_Empty(t *testing.T) {
	t.Parallel()

	doc, err := New(FlavorGFM).Parse(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Snapshot.Root.HasChildren() {
		t.Error("empty input should have no blocks")
	}
}

type rangeCase struct {
	name    string
	flavor  string
	content string
	kind    mdast.NodeKind
	nth     int
	source  mdast.SourceRange
	text    *mdast.SourceRange
}

func r(start, end int) mdast.SourceRange {
	return mdast.SourceRange{StartOffset: start, EndOffset: end}
}

func rp(start, end int) *mdast.SourceRange {
	v := r(start, end)
	return &v
}

func TestAnnotator_Ranges(t *testing.T) {
	t.Parallel()

	tests := []rangeCase{
		{"atx heading", FlavorCommonMark, "# Heading", mdast.NodeHeading, 0, r(0, 9), rp(2, 9)},
		{"atx heading closing hashes", FlavorCommonMark, "## Title ##\n", mdast.NodeHeading, 0, r(0, 11), rp(3, 8)},
		{"setext heading", FlavorCommonMark, "Title\n=====\n", mdast.NodeHeading, 0, r(0, 11), rp(0, 5)},
		{"bullet item", FlavorCommonMark, "- List item one", mdast.NodeListItem, 0, r(0, 15), rp(2, 15)},
		{"ordered item", FlavorCommonMark, "1. First item", mdast.NodeListItem, 0, r(0, 13), rp(3, 13)},
		{"second item", FlavorCommonMark, "- a\n- b\n", mdast.NodeListItem, 1, r(4, 7), rp(6, 7)},
		{"list", FlavorCommonMark, "- a\n- b\n", mdast.NodeList, 0, r(0, 7), nil},
		{"paragraph", FlavorCommonMark, "Some **bold** text", mdast.NodeParagraph, 0, r(0, 18), nil},
		{"strong", FlavorCommonMark, "Some **bold** text", mdast.NodeStrong, 0, r(5, 13), rp(7, 11)},
		{"emphasis underscore", FlavorCommonMark, "an _em_ word", mdast.NodeEmphasis, 0, r(3, 7), rp(4, 6)},
		{"nested emphasis", FlavorCommonMark, "***both***", mdast.NodeEmphasis, 0, r(0, 10), rp(3, 7)},
		{"code span", FlavorCommonMark, "Use `code` here", mdast.NodeCodeSpan, 0, r(4, 10), rp(5, 9)},
		{"padded code span", FlavorCommonMark, "`` `x` ``", mdast.NodeCodeSpan, 0, r(0, 9), rp(3, 6)},
		{"blockquote", FlavorCommonMark, "> quoted", mdast.NodeBlockquote, 0, r(0, 8), rp(2, 8)},
		{"outer blockquote", FlavorCommonMark, "> > x", mdast.NodeBlockquote, 0, r(0, 5), rp(4, 5)},
		{"inner blockquote", FlavorCommonMark, "> > x", mdast.NodeBlockquote, 1, r(2, 5), rp(4, 5)},
		{"fenced code", FlavorCommonMark, "```go\nx := 1\n```\n", mdast.NodeCodeBlock, 0, r(0, 16), rp(6, 12)},
		{"unclosed fence", FlavorCommonMark, "~~~\nabc\n", mdast.NodeCodeBlock, 0, r(0, 7), rp(4, 7)},
		{"indented code", FlavorCommonMark, "    code\n", mdast.NodeCodeBlock, 0, r(0, 8), rp(4, 8)},
		{"link", FlavorCommonMark, "[text](http://x)", mdast.NodeLink, 0, r(0, 16), rp(1, 5)},
		{"image", FlavorCommonMark, "![alt](a.png)", mdast.NodeImage, 0, r(0, 13), nil},
		{"autolink", FlavorCommonMark, "<http://x.io>", mdast.NodeAutoLink, 0, r(0, 13), rp(1, 12)},
		{"thematic break", FlavorCommonMark, "a\n\n---\n", mdast.NodeThematicBreak, 0, r(3, 6), nil},
		{"strikethrough", FlavorGFM, "~~gone~~", mdast.NodeStrikethrough, 0, r(0, 8), rp(2, 6)},
		{"table", FlavorGFM, "| a | b |\n| - | - |\n| c | d |\n", mdast.NodeTable, 0, r(0, 29), nil},
		{"table header", FlavorGFM, "| a | b |\n| - | - |\n| c | d |\n", mdast.NodeTableHeader, 0, r(0, 9), nil},
		{"table cell", FlavorGFM, "| a | b |\n| - | - |\n| c | d |\n", mdast.NodeTableCell, 3, r(26, 27), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := New(tt.flavor).Parse(context.Background(), "", []byte(tt.content))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			nodes := mdast.FindByKind(doc.Snapshot.Root, tt.kind)
			if len(nodes) <= tt.nth {
				t.Fatalf("expected at least %d %s nodes, got %d", tt.nth+1, tt.kind, len(nodes))
			}
			node := nodes[tt.nth]

			if !node.Located {
				t.Fatalf("%s was not located", tt.kind)
			}
			if node.Source != tt.source {
				t.Errorf("source = %+v, want %+v (%q)", node.Source, tt.source,
					tt.content[node.Source.StartOffset:node.Source.EndOffset])
			}

			switch {
			case tt.text == nil && node.Content != nil:
				t.Errorf("unexpected content range %+v", *node.Content)
			case tt.text != nil && node.Content == nil:
				t.Errorf("missing content range, want %+v", *tt.text)
			case tt.text != nil && *node.Content != *tt.text:
				t.Errorf("content = %+v, want %+v", *node.Content, *tt.text)
			}
		})
	}
}

func TestAnnotator_ContentWithinSource(t *testing.T) {
	t.Parallel()

	content := "# Title *x*\n\n> - item `c`\n>   more\n\n1. [l](u) **b**\n"
	doc, err := New(FlavorGFM).Parse(context.Background(), "", []byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for node := range mdast.All(doc.Snapshot.Root) {
		if !node.Located {
			continue
		}
		if !node.Source.Valid(len(content)) {
			t.Errorf("%s source %+v out of bounds", node.Kind, node.Source)
		}
		if node.Content != nil && !node.Source.Covers(*node.Content) {
			t.Errorf("%s content %+v escapes source %+v", node.Kind, *node.Content, node.Source)
		}
	}
}

func TestAnnotator_RendersPositionAttributes(t *testing.T) {
	t.Parallel()

	p := New(FlavorCommonMark)
	source := []byte("# Heading\n\nSome **bold** text\n")
	doc, err := p.Parse(context.Background(), "", source)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var buf bytes.Buffer
	if err := p.Markdown().Renderer().Render(&buf, doc.Snapshot.Content, doc.AST); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`<h1 data-source-start="0" data-source-end="9" data-text-start="2" data-text-end="9">Heading</h1>`,
		`<p data-source-start="11" data-source-end="29">`,
		`<strong data-source-start="16" data-source-end="24" data-text-start="18" data-text-end="22">bold</strong>`,
	} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("rendered HTML missing %q\n%s", want, html)
		}
	}
}

func TestAnnotator_Deterministic(t *testing.T) {
	t.Parallel()

	p := New(FlavorGFM)
	source := []byte("# A\n\n- b\n- *c*\n\n| x |\n| - |\n| y |\n")

	render := func() string {
		doc, err := p.Parse(context.Background(), "", source)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		var buf bytes.Buffer
		if err := p.Markdown().Renderer().Render(&buf, doc.Snapshot.Content, doc.AST); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		return buf.String()
	}

	if first, second := render(), render(); first != second {
		t.Errorf("renders differ:\n%s\n---\n%s", first, second)
	}
}

func TestAnnotator_DetectsFenceLanguage(t *testing.T) {
	t.Parallel()

	p := New(FlavorCommonMark, WithLanguageDetector(func([]byte) string { return "go" }))
	doc, err := p.Parse(context.Background(), "", []byte("```\npackage main\n```\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	blocks := mdast.FindByKind(doc.Snapshot.Root, mdast.NodeCodeBlock)
	if len(blocks) != 1 {
		t.Fatalf("expected one code block, got %d", len(blocks))
	}
	if got := blocks[0].Language(); got != "go" {
		t.Errorf("language = %q, want go", got)
	}
	if blocks[0].Block.CodeBlock.FenceChar != '`' {
		t.Errorf("fence char = %q", blocks[0].Block.CodeBlock.FenceChar)
	}

	v, ok := doc.AST.FirstChild().AttributeString(AttrLanguage)
	if !ok {
		t.Fatal("fenced block carries no language attribute")
	}
	if lang, isString := v.(string); !isString || lang != "go" {
		t.Errorf("language attribute = %#v, want string go", v)
	}
}
