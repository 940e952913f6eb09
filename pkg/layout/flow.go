package layout

import (
	"image"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
)

const (
	indentWidth = 24
	cellPadding = 4
)

var headingScale = map[string]float64{
	"h1": 2.0,
	"h2": 1.5,
	"h3": 1.25,
	"h4": 1.1,
	"h5": 1.0,
	"h6": 0.9,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "body": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "html": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tbody": true, "td": true, "tfoot": true, "th": true,
	"thead": true, "tr": true, "ul": true,
}

func isBlock(n *html.Node) bool {
	return blockTags[dom.Tag(n)]
}

// line is the inline formatting state of the line being filled.
type line struct {
	top, height int
	left, right int
	x           int
	used        bool
}

type engine struct {
	l     *Layout
	faces *faces
	y     int
	line  line
	atoms []atom
}

func (e *engine) lineHeight(st style) int {
	return int(math.Round(st.size * e.l.opts.LineHeight))
}

// children lays out the children of n. Consecutive inline children form an
// anonymous inline run; block children are laid out in turn.
func (e *engine) children(n *html.Node, left, right int, st style) {
	var run []*html.Node
	flush := func() {
		if len(run) > 0 && !allWhitespace(run) {
			e.inline(run, left, right, st)
		}
		run = run[:0]
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && isBlock(c):
			flush()
			e.block(c, left, right, st)
		case c.Type == html.TextNode || c.Type == html.ElementNode:
			run = append(run, c)
		}
	}
	flush()
}

func allWhitespace(nodes []*html.Node) bool {
	for _, n := range nodes {
		if !dom.IsWhitespace(n) {
			return false
		}
	}
	return true
}

func (e *engine) block(n *html.Node, left, right int, st style) {
	tag := dom.Tag(n)
	top := e.y

	if scale, ok := headingScale[tag]; ok {
		st.size = e.l.opts.FontSize * scale
		st.bold = true
	}

	switch tag {
	case "pre":
		st.mono, st.pre = true, true
		e.children(n, left, right, st)
	case "ul", "ol", "dd":
		e.children(n, left+indentWidth, right, st)
	case "blockquote":
		e.children(n, left+indentWidth, right, st)
	case "hr":
		e.y += e.lineHeight(st) / 2
	case "table":
		e.table(n, left, right, st)
	case "th":
		st.bold = true
		e.children(n, left, right, st)
	default:
		e.children(n, left, right, st)
	}

	e.l.blocks[n] = true
	e.l.boxes[n] = image.Rect(left, top, right, e.y)
	e.y += e.marginAfter(n, st)
}

func (e *engine) marginAfter(n *html.Node, st style) int {
	switch dom.Tag(n) {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "table", "hr", "div":
	case "ul", "ol":
		if dom.Tag(n.Parent) == "li" {
			return 0
		}
	default:
		return 0
	}
	return int(math.Round(st.size * 0.75))
}

// table lays out rows of equal-width cells.
func (e *engine) table(n *html.Node, left, right int, st style) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch dom.Tag(c) {
		case "thead", "tbody", "tfoot":
			top := e.y
			for r := c.FirstChild; r != nil; r = r.NextSibling {
				if dom.Tag(r) == "tr" {
					e.row(r, left, right, st)
				}
			}
			e.l.blocks[c] = true
			e.l.boxes[c] = image.Rect(left, top, right, e.y)
		case "tr":
			e.row(c, left, right, st)
		}
	}
}

func (e *engine) row(n *html.Node, left, right int, st style) {
	var cells []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if tag := dom.Tag(c); tag == "td" || tag == "th" {
			cells = append(cells, c)
		}
	}

	top := e.y
	bottom := top + e.lineHeight(st)
	if len(cells) > 0 {
		width := (right - left) / len(cells)
		for i, cell := range cells {
			e.y = top
			cellLeft := left + i*width
			e.block(cell, cellLeft+cellPadding, cellLeft+width-cellPadding, st)
			bottom = max(bottom, e.y)
		}
	}

	e.y = bottom
	e.l.blocks[n] = true
	e.l.boxes[n] = image.Rect(left, top, right, bottom)
}

// inline flows a run of inline nodes into lines between left and right.
func (e *engine) inline(nodes []*html.Node, left, right int, st style) {
	e.line = line{top: e.y, height: e.lineHeight(st), left: left, right: right, x: left}
	for _, n := range nodes {
		e.inlineNode(n, st)
	}
	e.y = e.line.top
	if e.line.used {
		e.y += e.line.height
	}
}

func (e *engine) newline() {
	e.line.top += e.line.height
	e.line.x = e.line.left
	e.line.used = false
}

func (e *engine) inlineNode(n *html.Node, st style) {
	switch n.Type {
	case html.TextNode:
		if st.pre {
			e.preText(n, st)
		} else {
			e.flowText(n, st)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	switch dom.Tag(n) {
	case "br":
		e.newline()
		return
	case "img":
		e.replaced(n, e.line.height)
		return
	case "input":
		e.replaced(n, e.line.height*4/5)
		return
	case "strong", "b":
		st.bold = true
	case "em", "i":
		st.italic = true
	case "code", "kbd", "samp", "tt":
		st.mono = true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.inlineNode(c, st)
	}
}

// replaced places an inline box with no text, like an image.
func (e *engine) replaced(n *html.Node, width int) {
	if e.line.x+width > e.line.right && e.line.x > e.line.left {
		e.newline()
	}
	r := image.Rect(e.line.x, e.line.top, e.line.x+width, e.line.top+e.line.height)
	e.line.x += width
	e.line.used = true
	e.l.boxes[n] = r
	e.atoms = append(e.atoms, atom{node: n, rect: r})
}

// flowText breaks a text node into words, each carrying its trailing
// whitespace, and wraps before a word that would overflow the line.
func (e *engine) flowText(n *html.Node, st style) {
	face := e.faces.face(st)
	data := n.Data

	for start := 0; start < len(data); {
		wordEnd := start
		for wordEnd < len(data) {
			r, size := utf8.DecodeRuneInString(data[wordEnd:])
			if unicode.IsSpace(r) {
				break
			}
			wordEnd += size
		}
		end := wordEnd
		for end < len(data) {
			r, size := utf8.DecodeRuneInString(data[end:])
			if !unicode.IsSpace(r) {
				break
			}
			end += size
		}

		if wordEnd == start && !e.line.used {
			// Whitespace at the start of a line collapses.
			start = end
			continue
		}

		if wordEnd > start && e.line.used {
			width := advances(face, data[start:wordEnd], false)
			if e.line.x+width[len(width)-1].Round() > e.line.right {
				e.newline()
			}
		}

		e.place(n, start, end, face, st)
		start = end
	}
}

// preText places each line of preformatted text without wrapping.
func (e *engine) preText(n *html.Node, st style) {
	face := e.faces.face(st)
	data := n.Data

	for start := 0; start <= len(data); {
		nl := strings.IndexByte(data[start:], '\n')
		end := len(data)
		if nl >= 0 {
			end = start + nl
		}
		if end > start {
			e.place(n, start, end, face, st)
		}
		if nl < 0 {
			return
		}
		e.newline()
		start = end + 1
	}
}

func (e *engine) place(n *html.Node, start, end int, face font.Face, st style) {
	text := n.Data[start:end]
	adv := advances(face, text, st.pre)

	offsets := make([]int, 0, len(adv))
	for i := range text {
		offsets = append(offsets, start+i)
	}
	offsets = append(offsets, end)

	stops := make([]int, len(adv))
	for i, a := range adv {
		stops[i] = e.line.x + a.Round()
	}

	x0 := e.line.x
	x1 := stops[len(stops)-1]
	rect := image.Rect(x0, e.line.top, x1, e.line.top+e.line.height)

	e.l.byNode[n] = append(e.l.byNode[n], len(e.l.frags))
	e.l.frags = append(e.l.frags, Fragment{
		Node:    n,
		Start:   start,
		End:     end,
		Rect:    rect,
		Offsets: offsets,
		Stops:   stops,
	})
	e.atoms = append(e.atoms, atom{node: n, rect: rect})

	e.line.x = x1
	e.line.used = true
}
