package mdast

// BlockAttrs carries the parts of a block node that positions alone do not
// describe. At most one of the fields is meaningful for a given kind.
type BlockAttrs struct {
	HeadingLevel int // 1-6, NodeHeading
	List         *ListAttrs
	CodeBlock    *CodeBlockAttrs
}

// ListAttrs describes a NodeList.
type ListAttrs struct {
	Ordered      bool
	BulletMarker string // "-", "+" or "*" for bullet lists
	StartNumber  int
	Tight        bool
}

// CodeBlockAttrs describes a NodeCodeBlock. Language is the first word of
// the info string, or the detected language when there is no info string
// and detection is enabled.
type CodeBlockAttrs struct {
	FenceChar byte // 0 for indented blocks
	Info      string
	Language  string
	Indented  bool
}

// InlineAttrs carries inline node details.
type InlineAttrs struct {
	// Text is the literal content of text, code span and autolink nodes
	// after escapes are resolved.
	Text []byte

	Link *LinkAttrs

	// EmphasisLevel is 1 for emphasis and 2 for strong; Delimiter is the
	// byte the run was written with.
	EmphasisLevel int
	Delimiter     byte
}

// LinkAttrs describes links and images.
type LinkAttrs struct {
	Destination string
	Title       string
	Reference   bool // [text][label] or collapsed/shortcut form
}

// Level returns the heading level of n, or 0 when n is not a heading.
func (n *Node) Level() int {
	if n == nil || n.Kind != NodeHeading || n.Block == nil {
		return 0
	}
	return n.Block.HeadingLevel
}

// Language returns the language of a code block node, or "".
func (n *Node) Language() string {
	if n == nil || n.Block == nil || n.Block.CodeBlock == nil {
		return ""
	}
	return n.Block.CodeBlock.Language
}
