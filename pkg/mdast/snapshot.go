// Package mdast provides the annotated Markdown tree used for source mapping.
// It defines:
// - Snapshot: the buffer contents of one render generation with its line index
// - Node: the annotated tree whose nodes carry source and content ranges
// - Traversal and search helpers over that tree
package mdast

// Snapshot is an immutable view of a Markdown buffer for one render.
type Snapshot struct {
	// Path is the file path (may be empty for in-memory content).
	Path string

	// Content is the full buffer bytes.
	Content []byte

	// Lines contains metadata for each line in the buffer.
	Lines []LineInfo

	// Root is the annotated tree root (Document).
	Root *Node
}

// LineInfo holds metadata for a single line in a file.
type LineInfo struct {
	// StartOffset is the byte index of the line start.
	StartOffset int

	// NewlineStart is the byte index where newline characters begin.
	// For lines without a trailing newline (e.g., last line), this equals EndOffset.
	NewlineStart int

	// EndOffset is the byte index just after the newline (or end of file).
	EndOffset int
}

// NewSnapshot creates a new Snapshot from content.
// It builds the line index but does not parse (that requires a Parser).
func NewSnapshot(path string, content []byte) *Snapshot {
	return &Snapshot{
		Path:    path,
		Content: content,
		Lines:   BuildLines(content),
	}
}
