// Package sourcemap indexes the annotated elements of a rendered preview by
// id and by the source offsets they cover.
package sourcemap

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/yaklabco/mdsync/pkg/dom"
	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Entry describes one annotated element.
type Entry struct {
	ID       string             `json:"id"`
	NodeType string             `json:"nodeType"`
	Source   mdast.SourceRange  `json:"sourceRange"`
	Text     *mdast.SourceRange `json:"textRange,omitempty"`

	// Node is the element in the rendered tree.
	Node *html.Node `json:"-"`
}

// Block reports whether the entry is a block-level element.
func (e *Entry) Block() bool {
	return blockTypes[e.NodeType]
}

// BlockOnly reports whether carets inside the entry are drawn at its top-left
// rather than inside its text.
func (e *Entry) BlockOnly() bool {
	return e.NodeType == "table" || e.NodeType == "pre" || e.NodeType == "div" || e.NodeType == "hr"
}

var blockTypes = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "li": true, "blockquote": true, "pre": true,
	"hr": true, "table": true, "thead": true, "tbody": true, "tr": true, "th": true,
	"td": true, "div": true,
}

// Map is the source map of one render. It is immutable once built.
type Map struct {
	entries []*Entry
	byID    map[string]*Entry
	byNode  map[*html.Node]*Entry
}

// Build scans the tree under root for annotated elements. Ids are
// "<tag>-<sourceStart>" with a "-N" suffix on collision, so the same document
// always yields the same ids.
func Build(root *html.Node) *Map {
	m := &Map{
		byID:   make(map[string]*Entry),
		byNode: make(map[*html.Node]*Entry),
	}
	if root == nil {
		return m
	}

	seen := make(map[string]int)
	for _, n := range dom.Elements(root, dom.IsAnnotated) {
		source, text, _ := dom.Ranges(n)
		tag := dom.Tag(n)

		id := tag + "-" + strconv.Itoa(source.StartOffset)
		if count := seen[id]; count > 0 {
			seen[id] = count + 1
			id += "-" + strconv.Itoa(count)
		} else {
			seen[id] = 1
		}

		entry := &Entry{ID: id, NodeType: tag, Source: source, Text: text, Node: n}
		m.entries = append(m.entries, entry)
		m.byID[id] = entry
		m.byNode[n] = entry
	}

	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns the entries in document order.
func (m *Map) Entries() []*Entry {
	return m.entries
}

// Get returns the entry with the given id.
func (m *Map) Get(id string) (*Entry, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// ForNode returns the entry of an annotated element.
func (m *Map) ForNode(n *html.Node) (*Entry, bool) {
	e, ok := m.byNode[n]
	return e, ok
}

// FindContaining returns the smallest entry whose source range contains
// offset. Among equal sizes the later, more deeply nested element wins.
func (m *Map) FindContaining(offset int) (*Entry, bool) {
	return m.smallest(func(e *Entry) bool { return e.Source.Contains(offset) })
}

// FindEndingAt returns the smallest entry whose source range ends at offset.
func (m *Map) FindEndingAt(offset int) (*Entry, bool) {
	return m.smallest(func(e *Entry) bool { return e.Source.EndOffset == offset && !e.Source.IsEmpty() })
}

// InnermostBlock returns the smallest block-level entry containing offset.
func (m *Map) InnermostBlock(offset int) (*Entry, bool) {
	return m.smallest(func(e *Entry) bool { return e.Block() && e.Source.Contains(offset) })
}

func (m *Map) smallest(match func(*Entry) bool) (*Entry, bool) {
	var best *Entry
	for _, e := range m.entries {
		if !match(e) {
			continue
		}
		if best == nil || e.Source.Len() <= best.Source.Len() {
			best = e
		}
	}
	return best, best != nil
}
