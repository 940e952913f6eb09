package mdast

import "iter"

// All yields root and its descendants in document order.
func All(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		all(root, yield)
	}
}

func all(n *Node, yield func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for child := n.FirstChild; child != nil; child = child.Next {
		if !all(child, yield) {
			return false
		}
	}
	return true
}

// exactLeaf reports whether n is a leaf text node below root with an exact
// source position.
func exactLeaf(root, n *Node) bool {
	return n != root && n.IsLeafText() && n.Located && !n.Degraded
}

// FirstLeaf returns the first exactly located leaf text node under root.
func FirstLeaf(root *Node) *Node {
	return FindFirst(root, func(n *Node) bool { return exactLeaf(root, n) })
}

// LastLeaf returns the last exactly located leaf text node under root.
func LastLeaf(root *Node) *Node {
	var last *Node
	for n := range All(root) {
		if exactLeaf(root, n) {
			last = n
		}
	}
	return last
}

// FindAll returns the nodes under root, root included, that match pred.
func FindAll(root *Node, pred func(n *Node) bool) []*Node {
	var found []*Node
	for n := range All(root) {
		if pred(n) {
			found = append(found, n)
		}
	}
	return found
}

// FindFirst returns the first node in document order that matches pred.
func FindFirst(root *Node, pred func(n *Node) bool) *Node {
	for n := range All(root) {
		if pred(n) {
			return n
		}
	}
	return nil
}

// FindByKind returns every node of the given kind.
func FindByKind(root *Node, kind NodeKind) []*Node {
	return FindAll(root, func(n *Node) bool { return n.Kind == kind })
}
