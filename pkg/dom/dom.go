// Package dom reads the rendered preview as a tree of golang.org/x/net/html
// nodes and exposes the source position attributes the renderer writes.
package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Position is a caret position: a text node and a byte offset into its Data.
type Position struct {
	Node   *html.Node
	Offset int
}

// IsZero reports whether p refers to no node.
func (p Position) IsZero() bool {
	return p.Node == nil
}

// ParseFragment parses an HTML fragment and returns a document node holding it.
func ParseFragment(fragment string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// RenderChildren serializes the children of root.
func RenderChildren(root *html.Node) (string, error) {
	var sb strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&sb, child); err != nil {
			return "", fmt.Errorf("render node: %w", err)
		}
	}
	return sb.String(), nil
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IntAttr returns the named attribute parsed as a non-negative integer.
func IntAttr(n *html.Node, key string) (int, bool) {
	v, ok := Attr(n, key)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// HasClass reports whether n carries class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Ranges returns the source range of an annotated element and its content
// range when present.
func Ranges(n *html.Node) (mdast.SourceRange, *mdast.SourceRange, bool) {
	start, ok1 := IntAttr(n, mdast.AttrSourceStart)
	end, ok2 := IntAttr(n, mdast.AttrSourceEnd)
	if !ok1 || !ok2 || end < start {
		return mdast.SourceRange{}, nil, false
	}
	source := mdast.SourceRange{StartOffset: start, EndOffset: end}

	textStart, ok1 := IntAttr(n, mdast.AttrTextStart)
	textEnd, ok2 := IntAttr(n, mdast.AttrTextEnd)
	if !ok1 || !ok2 || textEnd < textStart {
		return source, nil, true
	}
	return source, &mdast.SourceRange{StartOffset: textStart, EndOffset: textEnd}, true
}

// IsAnnotated reports whether n is an element carrying a source range.
func IsAnnotated(n *html.Node) bool {
	_, _, ok := Ranges(n)
	return ok
}

// NearestAnnotated returns n or its closest ancestor carrying a source range.
func NearestAnnotated(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if IsAnnotated(p) {
			return p
		}
	}
	return nil
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		Walk(child, fn)
	}
}

// Elements returns the elements under root, root included, matching pred.
func Elements(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// IsWhitespace reports whether n is a text node holding only whitespace.
func IsWhitespace(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// TextNodes returns the non-whitespace text nodes under root in document order.
func TextNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode && !IsWhitespace(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TextContent concatenates the text of every text node under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Contains reports whether n is ancestor or a descendant of it.
func Contains(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Tag returns the lowercase tag name of an element, or "" for other nodes.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}
