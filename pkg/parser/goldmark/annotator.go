package goldmark

import (
	"bytes"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/span"
)

// AttrLanguage carries the resolved fenced code language to the code renderer.
const AttrLanguage = "language"

//nolint:gochecknoglobals // parser context key, created once
var treeKey = parser.NewContextKey()

// Annotator is a goldmark AST transformer that builds the annotated tree and
// writes position attributes onto every node that renders as an element.
//
// Positions come from goldmark's own line and text segments. Delimiters are
// recovered by scanning the source around those segments. Nodes with no
// segments fall back to the span locator.
type Annotator struct {
	detect func([]byte) string
	logger *log.Logger
}

// Transform implements parser.ASTTransformer.
func (a *Annotator) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	run := &annotation{
		source: source,
		cursor: span.NewCursor(source),
		detect: a.detect,
		logger: a.logger,
	}
	if run.logger == nil {
		run.logger = log.Default()
	}

	root := mdast.NewDocument()
	whole := mdast.SourceRange{StartOffset: 0, EndOffset: len(source)}
	mdast.Locate(root, whole)
	run.mapChildren(doc, root, whole)

	pc.Set(treeKey, root)
}

// annotation holds the state of one Transform call.
type annotation struct {
	source []byte
	cursor *span.Cursor
	detect func([]byte) string
	logger *log.Logger
}

// mapChildren maps all children of a goldmark node under parent.
// within bounds the locator fallback for inline children.
func (a *annotation) mapChildren(gmParent ast.Node, parent *mdast.Node, within mdast.SourceRange) {
	for child := gmParent.FirstChild(); child != nil; child = child.NextSibling() {
		if node := a.mapNode(child, within); node != nil {
			mdast.AppendChild(parent, node)
		}
	}
}

// mapNode converts a single goldmark node and records its positions.
func (a *annotation) mapNode(gmNode ast.Node, within mdast.SourceRange) *mdast.Node {
	var node *mdast.Node

	switch gmn := gmNode.(type) {
	// Block-level nodes.
	case *ast.Heading:
		node = a.mapHeading(gmn)
	case *ast.Paragraph:
		node = a.mapParagraph(gmn, mdast.NodeParagraph)
	case *ast.TextBlock:
		node = a.mapParagraph(gmn, mdast.NodeRaw)
	case *ast.List:
		node = a.mapList(gmn, within)
	case *ast.ListItem:
		node = a.mapListItem(gmn, within)
	case *ast.Blockquote:
		node = a.mapBlockquote(gmn, within)
	case *ast.FencedCodeBlock:
		node = a.mapFencedCodeBlock(gmn)
	case *ast.CodeBlock:
		node = a.mapIndentedCodeBlock(gmn)
	case *ast.ThematicBreak:
		node = a.mapThematicBreak()
	case *ast.HTMLBlock:
		node = a.mapHTMLBlock(gmn)

	// Inline-level nodes.
	case *ast.Text:
		node = a.mapText(gmn)
	case *ast.String:
		node = a.mapString(gmn, within)
	case *ast.Emphasis:
		kind := mdast.NodeEmphasis
		if gmn.Level == 2 {
			kind = mdast.NodeStrong
		}
		node = a.mapDelimited(gmn, kind, gmn.Level, within)
	case *ast.CodeSpan:
		node = a.mapCodeSpan(gmn, within)
	case *ast.Link:
		node = a.mapLink(gmn, within)
	case *ast.Image:
		node = a.mapImage(gmn, within)
	case *ast.AutoLink:
		node = a.mapAutoLink(gmn, within)
	case *ast.RawHTML:
		node = a.mapRawHTML(gmn)

	// GFM extension nodes.
	case *east.Strikethrough:
		node = a.mapDelimited(gmn, mdast.NodeStrikethrough, 0, within)
	case *east.Table:
		node = a.mapTable(gmn, within)
	case *east.TableHeader:
		node = a.mapTableRow(gmn, mdast.NodeTableHeader, within)
	case *east.TableRow:
		node = a.mapTableRow(gmn, mdast.NodeTableRow, within)
	case *east.TableCell:
		node = a.mapTableCell(gmn, within)
	case *east.TaskCheckBox:
		node = mdast.NewNode(mdast.NodeRaw)

	default:
		node = mdast.NewNode(mdast.NodeRaw)
		a.mapChildren(gmNode, node, within)
	}

	if node.Located && node.IsBlock() {
		a.cursor.Seek(node.Source.EndOffset)
	}
	a.setAttributes(gmNode, node)

	return node
}

// within returns the search bounds for inline fallbacks under a block.
func (a *annotation) within(block mdast.SourceRange, ok bool) mdast.SourceRange {
	if ok {
		return block
	}
	return mdast.SourceRange{StartOffset: a.cursor.Pos(), EndOffset: len(a.source)}
}

// fallbackBlock gives a block with no segments the span of its children, or
// else the next non-blank source line.
func (a *annotation) fallbackBlock(node *mdast.Node) {
	if r, ok := childrenSpan(node); ok {
		mdast.Degrade(node, r)
	} else if line, ok := a.cursor.NextLine(); ok {
		mdast.Degrade(node, line)
	} else {
		a.logger.Debug("unlocatable block", "kind", node.Kind.String())
		return
	}
	a.logger.Debug("degraded source range", "kind", node.Kind.String(),
		"start", node.Source.StartOffset, "end", node.Source.EndOffset)
}

// setLeafContent sets the content range from the first and last descendant leaf text.
func (a *annotation) setLeafContent(node *mdast.Node) {
	if !node.Located {
		return
	}
	first, last := mdast.FirstLeaf(node), mdast.LastLeaf(node)
	if first == nil || last == nil {
		return
	}
	mdast.SetContent(node, mdast.SourceRange{
		StartOffset: first.Source.StartOffset,
		EndOffset:   last.Source.EndOffset,
	})
}

func (a *annotation) mapHeading(h *ast.Heading) *mdast.Node {
	node := mdast.NewNode(mdast.NodeHeading)
	node.Block = &mdast.BlockAttrs{HeadingLevel: h.Level}

	content, ok := segmentsRange(h.Lines())
	if ok {
		mdast.Locate(node, a.headingSource(content))
	}

	a.mapChildren(h, node, a.within(node.Source, ok))

	if !ok {
		a.fallbackBlock(node)
	}
	a.setLeafContent(node)
	if node.Content == nil && ok {
		mdast.SetContent(node, content)
	}

	return node
}

// headingSource extends a heading's content segment to its markers: the opening
// hashes of an ATX heading or the underline of a setext heading.
func (a *annotation) headingSource(content mdast.SourceRange) mdast.SourceRange {
	if start, ok := atxStart(a.source, content.StartOffset); ok {
		end := trimRight(a.source, start, lineEndOf(a.source, content.StartOffset))
		return mdast.SourceRange{StartOffset: start, EndOffset: end}
	}

	start := content.StartOffset
	lastLineEnd := lineEndOf(a.source, max(content.StartOffset, trimRight(a.source, start, content.EndOffset)-1))
	if lastLineEnd >= len(a.source) {
		return mdast.SourceRange{StartOffset: start, EndOffset: trimRight(a.source, start, content.EndOffset)}
	}

	underlineEnd := lineEndOf(a.source, lastLineEnd+1)
	return mdast.SourceRange{StartOffset: start, EndOffset: trimRight(a.source, start, underlineEnd)}
}

func (a *annotation) mapParagraph(p ast.Node, kind mdast.NodeKind) *mdast.Node {
	node := mdast.NewNode(kind)

	block, ok := segmentsRange(p.Lines())
	if ok {
		block.EndOffset = trimRight(a.source, block.StartOffset, block.EndOffset)
		mdast.Locate(node, block)
	}

	a.mapChildren(p, node, a.within(block, ok))

	if !ok {
		a.fallbackBlock(node)
	}
	return node
}

func (a *annotation) mapList(list *ast.List, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeList)
	attrs := &mdast.ListAttrs{
		Ordered:     list.IsOrdered(),
		StartNumber: list.Start,
		Tight:       list.IsTight,
	}
	if !list.IsOrdered() {
		attrs.BulletMarker = string(list.Marker)
	}
	node.Block = &mdast.BlockAttrs{List: attrs}

	a.mapChildren(list, node, within)

	if r, ok := childrenSpan(node); ok {
		mdast.Locate(node, r)
	} else {
		a.fallbackBlock(node)
	}
	return node
}

func (a *annotation) mapListItem(item *ast.ListItem, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeListItem)

	a.mapChildren(item, node, within)

	if r, ok := childrenSpan(node); ok {
		r.StartOffset = listMarkerStart(a.source, r.StartOffset)
		mdast.Locate(node, r)
		a.setLeafContent(node)
	} else {
		a.fallbackBlock(node)
	}
	return node
}

func (a *annotation) mapBlockquote(bq *ast.Blockquote, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeBlockquote)

	a.mapChildren(bq, node, within)

	if r, ok := childrenSpan(node); ok {
		r.StartOffset = quoteMarkerStart(a.source, r.StartOffset)
		mdast.Locate(node, r)
		a.setLeafContent(node)
	} else {
		a.fallbackBlock(node)
	}
	return node
}

func (a *annotation) mapFencedCodeBlock(codeBlock *ast.FencedCodeBlock) *mdast.Node {
	node := mdast.NewNode(mdast.NodeCodeBlock)

	info := ""
	if codeBlock.Info != nil {
		info = string(codeBlock.Info.Segment.Value(a.source))
	}
	attrs := &mdast.CodeBlockAttrs{Info: info, Language: string(codeBlock.Language(a.source))}
	node.Block = &mdast.BlockAttrs{CodeBlock: attrs}

	content, hasLines := segmentsRange(codeBlock.Lines())
	if attrs.Language == "" && a.detect != nil && hasLines {
		attrs.Language = a.detect(a.source[content.StartOffset:content.EndOffset])
	}
	if lang := node.Language(); lang != "" {
		codeBlock.SetAttributeString(AttrLanguage, lang)
	}

	// Locate the opening fence line.
	var fenceLine mdast.SourceRange
	switch {
	case codeBlock.Info != nil:
		start := lineStartOf(a.source, codeBlock.Info.Segment.Start)
		fenceLine = mdast.SourceRange{StartOffset: start, EndOffset: lineEndOf(a.source, start)}
	case hasLines && lineStartOf(a.source, content.StartOffset) > 0:
		prev := lineStartOf(a.source, content.StartOffset) - 1
		fenceLine = mdast.SourceRange{StartOffset: lineStartOf(a.source, prev), EndOffset: prev}
	default:
		line, ok := a.cursor.NextLine()
		if !ok {
			a.logger.Debug("unlocatable code fence")
			return node
		}
		fenceLine = line
	}

	start, fenceChar, ok := fenceIn(a.source, fenceLine.StartOffset, fenceLine.EndOffset)
	if !ok {
		a.fallbackBlock(node)
		return node
	}
	attrs.FenceChar = fenceChar

	// The closing fence is the line after the content, if present.
	after := fenceLine.EndOffset + 1
	if hasLines {
		after = content.EndOffset
	}
	end := trimRight(a.source, start, fenceLine.EndOffset)
	if hasLines {
		end = trimRight(a.source, start, content.EndOffset)
	}
	if after < len(a.source) {
		closingEnd := lineEndOf(a.source, after)
		if _, _, closed := fenceIn(a.source, after, closingEnd); closed {
			end = trimRight(a.source, start, closingEnd)
		}
	}

	mdast.Locate(node, mdast.SourceRange{StartOffset: start, EndOffset: end})
	if hasLines {
		mdast.SetContent(node, mdast.SourceRange{
			StartOffset: content.StartOffset,
			EndOffset:   trimRight(a.source, content.StartOffset, content.EndOffset),
		})
	}

	return node
}

func (a *annotation) mapIndentedCodeBlock(codeBlock *ast.CodeBlock) *mdast.Node {
	node := mdast.NewNode(mdast.NodeCodeBlock)
	node.Block = &mdast.BlockAttrs{CodeBlock: &mdast.CodeBlockAttrs{Indented: true}}

	content, ok := segmentsRange(codeBlock.Lines())
	if !ok {
		a.fallbackBlock(node)
		return node
	}

	start := backOverSpaces(a.source, content.StartOffset)
	end := trimRight(a.source, content.StartOffset, content.EndOffset)
	mdast.Locate(node, mdast.SourceRange{StartOffset: start, EndOffset: end})
	mdast.SetContent(node, mdast.SourceRange{StartOffset: content.StartOffset, EndOffset: end})

	return node
}

// mapThematicBreak uses the next non-blank line: goldmark keeps no segment for rules.
func (a *annotation) mapThematicBreak() *mdast.Node {
	node := mdast.NewNode(mdast.NodeThematicBreak)

	line, ok := a.cursor.NextLine()
	if !ok {
		return node
	}

	start := skipSpaces(a.source, line.StartOffset, line.EndOffset)
	rule := bytes.TrimSpace(a.source[start:line.EndOffset])
	if len(rule) > 0 && len(bytes.Trim(rule, "-*_ \t")) == 0 {
		mdast.Locate(node, mdast.SourceRange{StartOffset: start, EndOffset: line.EndOffset})
	} else {
		mdast.Degrade(node, line)
	}
	return node
}

func (a *annotation) mapHTMLBlock(block *ast.HTMLBlock) *mdast.Node {
	node := mdast.NewNode(mdast.NodeHTMLBlock)

	r, ok := segmentsRange(block.Lines())
	if block.HasClosure() {
		closure := block.ClosureLine
		r = r.Union(mdast.SourceRange{StartOffset: closure.Start, EndOffset: closure.Stop})
		ok = true
	}
	if ok {
		r.EndOffset = trimRight(a.source, r.StartOffset, r.EndOffset)
		mdast.Locate(node, r)
	} else {
		a.fallbackBlock(node)
	}
	return node
}

func (a *annotation) mapText(t *ast.Text) *mdast.Node {
	node := mdast.NewNode(mdast.NodeText)
	seg := t.Segment
	node.Inline = &mdast.InlineAttrs{Text: seg.Value(a.source)}

	if seg.Start >= 0 && seg.Start <= seg.Stop && seg.Stop <= len(a.source) {
		mdast.Locate(node, mdast.SourceRange{StartOffset: seg.Start, EndOffset: seg.Stop})
	}
	return node
}

// mapString locates synthesized text by value. Inline lookups never move the
// block cursor, so a duplicate earlier in the block can win.
func (a *annotation) mapString(s *ast.String, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeText)
	node.Inline = &mdast.InlineAttrs{Text: s.Value}

	if r, ok := a.cursor.Inline(within, s.Value); ok {
		mdast.Locate(node, r)
	}
	return node
}

// mapDelimited handles emphasis, strong and strikethrough. The source range is
// the children's span widened by the delimiter run on both sides.
func (a *annotation) mapDelimited(gmNode ast.Node, kind mdast.NodeKind, level int, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(kind)
	a.mapChildren(gmNode, node, within)

	inner, ok := childrenSpan(node)
	if !ok {
		return node
	}

	var delim byte
	if inner.StartOffset > 0 {
		delim = a.source[inner.StartOffset-1]
	}

	width := level
	if kind == mdast.NodeStrikethrough {
		width = runBefore(a.source, inner.StartOffset, '~', 2)
	}
	node.Inline = &mdast.InlineAttrs{EmphasisLevel: level, Delimiter: delim}

	validDelim := delim == '*' || delim == '_' || delim == '~'
	if validDelim && width > 0 &&
		runBefore(a.source, inner.StartOffset, delim, width) == width &&
		runAfter(a.source, inner.EndOffset, delim, width) == width {
		mdast.Locate(node, mdast.SourceRange{
			StartOffset: inner.StartOffset - width,
			EndOffset:   inner.EndOffset + width,
		})
	} else {
		mdast.Degrade(node, inner)
	}

	a.setLeafContent(node)
	return node
}

func (a *annotation) mapCodeSpan(codeSpan *ast.CodeSpan, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeCodeSpan)
	a.mapChildren(codeSpan, node, within)

	var value []byte
	for child := node.FirstChild; child != nil; child = child.Next {
		if child.Inline != nil {
			value = append(value, child.Inline.Text...)
		}
	}
	node.Inline = &mdast.InlineAttrs{Text: value}

	inner, ok := childrenSpan(node)
	if !ok {
		return node
	}

	// One padding space on each side is stripped by the parser.
	start, end := inner.StartOffset, inner.EndOffset
	if start > 1 && a.source[start-1] == ' ' && a.source[start-2] == '`' {
		start--
	}
	if end+1 < len(a.source) && a.source[end] == ' ' && a.source[end+1] == '`' {
		end++
	}

	opening := runBefore(a.source, start, '`', len(a.source))
	closing := runAfter(a.source, end, '`', len(a.source))
	if opening > 0 && opening == closing {
		mdast.Locate(node, mdast.SourceRange{StartOffset: start - opening, EndOffset: end + closing})
	} else {
		mdast.Degrade(node, inner)
	}

	a.setLeafContent(node)
	return node
}

func (a *annotation) mapLink(link *ast.Link, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeLink)
	node.Inline = &mdast.InlineAttrs{Link: &mdast.LinkAttrs{
		Destination: string(link.Destination),
		Title:       string(link.Title),
	}}

	a.mapChildren(link, node, within)

	inner, ok := childrenSpan(node)
	if !ok {
		return node
	}

	if inner.StartOffset > 0 && a.source[inner.StartOffset-1] == '[' &&
		inner.EndOffset < len(a.source) && a.source[inner.EndOffset] == ']' {
		end, ref := linkTail(a.source, inner.EndOffset+1)
		node.Inline.Link.Reference = ref
		mdast.Locate(node, mdast.SourceRange{StartOffset: inner.StartOffset - 1, EndOffset: end})
	} else {
		mdast.Degrade(node, inner)
	}

	a.setLeafContent(node)
	return node
}

func (a *annotation) mapImage(img *ast.Image, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeImage)
	node.Inline = &mdast.InlineAttrs{Link: &mdast.LinkAttrs{
		Destination: string(img.Destination),
		Title:       string(img.Title),
	}}

	a.mapChildren(img, node, within)

	inner, ok := childrenSpan(node)
	if !ok {
		return node
	}

	if inner.StartOffset > 1 && a.source[inner.StartOffset-1] == '[' && a.source[inner.StartOffset-2] == '!' &&
		inner.EndOffset < len(a.source) && a.source[inner.EndOffset] == ']' {
		end, ref := linkTail(a.source, inner.EndOffset+1)
		node.Inline.Link.Reference = ref
		mdast.Locate(node, mdast.SourceRange{StartOffset: inner.StartOffset - 2, EndOffset: end})
	} else {
		mdast.Degrade(node, inner)
	}
	return node
}

// mapAutoLink locates the label by value: goldmark keeps no segment for autolinks.
func (a *annotation) mapAutoLink(link *ast.AutoLink, within mdast.SourceRange) *mdast.Node {
	label := link.Label(a.source)
	node := mdast.NewNode(mdast.NodeAutoLink)
	node.Inline = &mdast.InlineAttrs{
		Text: label,
		Link: &mdast.LinkAttrs{Destination: string(link.URL(a.source))},
	}

	r, ok := a.cursor.Inline(within, label)
	if !ok {
		return node
	}

	source := r
	if r.StartOffset > 0 && a.source[r.StartOffset-1] == '<' &&
		r.EndOffset < len(a.source) && a.source[r.EndOffset] == '>' {
		source = mdast.SourceRange{StartOffset: r.StartOffset - 1, EndOffset: r.EndOffset + 1}
	}
	mdast.Locate(node, source)
	mdast.SetContent(node, r)

	leaf := mdast.NewNode(mdast.NodeText)
	leaf.Inline = &mdast.InlineAttrs{Text: label}
	mdast.Locate(leaf, r)
	mdast.AppendChild(node, leaf)

	return node
}

func (a *annotation) mapRawHTML(raw *ast.RawHTML) *mdast.Node {
	node := mdast.NewNode(mdast.NodeHTMLInline)
	if r, ok := segmentsRange(raw.Segments); ok {
		mdast.Locate(node, r)
	}
	return node
}

func (a *annotation) mapTable(table *east.Table, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeTable)
	a.mapChildren(table, node, within)

	r, ok := childrenSpan(node)
	if !ok {
		a.fallbackBlock(node)
		return node
	}

	// A header-only table still owns its delimiter row.
	if node.ChildCount() == 1 {
		if next := lineEndOf(a.source, r.EndOffset) + 1; next < len(a.source) {
			r.EndOffset = trimRight(a.source, next, lineEndOf(a.source, next))
		}
	}
	mdast.Locate(node, r)
	return node
}

// mapTableRow gives a row the trimmed source line of its cells.
func (a *annotation) mapTableRow(row ast.Node, kind mdast.NodeKind, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(kind)
	a.mapChildren(row, node, within)

	r, ok := childrenSpan(node)
	if !ok {
		return node
	}

	lineStart := lineStartOf(a.source, r.StartOffset)
	start := skipSpaces(a.source, lineStart, r.StartOffset)
	end := trimRight(a.source, start, lineEndOf(a.source, r.EndOffset))
	mdast.Locate(node, mdast.SourceRange{StartOffset: start, EndOffset: end})
	return node
}

func (a *annotation) mapTableCell(cell *east.TableCell, within mdast.SourceRange) *mdast.Node {
	node := mdast.NewNode(mdast.NodeTableCell)
	a.mapChildren(cell, node, within)

	if r, ok := childrenSpan(node); ok {
		mdast.Locate(node, r)
	}
	return node
}

// setAttributes writes position attributes on goldmark nodes that render as elements.
func (a *annotation) setAttributes(gmNode ast.Node, node *mdast.Node) {
	if !node.Located || !rendersElement(gmNode) {
		return
	}

	gmNode.SetAttributeString(mdast.AttrSourceStart, []byte(strconv.Itoa(node.Source.StartOffset)))
	gmNode.SetAttributeString(mdast.AttrSourceEnd, []byte(strconv.Itoa(node.Source.EndOffset)))

	if node.Content != nil {
		gmNode.SetAttributeString(mdast.AttrTextStart, []byte(strconv.Itoa(node.Content.StartOffset)))
		gmNode.SetAttributeString(mdast.AttrTextEnd, []byte(strconv.Itoa(node.Content.EndOffset)))
	}
}

func rendersElement(gmNode ast.Node) bool {
	switch gmNode.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote,
		*ast.FencedCodeBlock, *ast.CodeBlock, *ast.ThematicBreak,
		*ast.Emphasis, *ast.CodeSpan, *ast.Link, *ast.Image, *ast.AutoLink,
		*east.Strikethrough, *east.Table, *east.TableHeader, *east.TableRow, *east.TableCell:
		return true
	default:
		return false
	}
}
