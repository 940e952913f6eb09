package mdast

// NewNode returns an unlocated node of the given kind.
func NewNode(kind NodeKind) *Node {
	return &Node{Kind: kind}
}

// NewDocument returns an empty document root.
func NewDocument() *Node {
	return &Node{Kind: NodeDocument}
}

// AppendChild makes child the last child of parent, detaching it from any
// previous parent first.
func AppendChild(parent, child *Node) {
	if parent == nil || child == nil {
		return
	}
	detach(child)

	child.Parent = parent
	child.Prev = parent.LastChild
	if parent.LastChild == nil {
		parent.FirstChild = child
	} else {
		parent.LastChild.Next = child
	}
	parent.LastChild = child
}

func detach(n *Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	if n.Prev == nil {
		parent.FirstChild = n.Next
	} else {
		n.Prev.Next = n.Next
	}
	if n.Next == nil {
		parent.LastChild = n.Prev
	} else {
		n.Next.Prev = n.Prev
	}
	n.Parent, n.Prev, n.Next = nil, nil, nil
}

// Locate records an exact source range for n.
func Locate(n *Node, source SourceRange) {
	n.Source, n.Located, n.Degraded = source, true, false
}

// Degrade records a source range for n that only approximates where it
// came from, such as the enclosing block of an element the parser did not
// position.
func Degrade(n *Node, source SourceRange) {
	n.Source, n.Located, n.Degraded = source, true, true
}

// SetContent records the content range for n, clipped to its source range.
func SetContent(n *Node, content SourceRange) {
	content.StartOffset = max(content.StartOffset, n.Source.StartOffset)
	content.EndOffset = max(min(content.EndOffset, n.Source.EndOffset), content.StartOffset)
	n.Content = &content
}
