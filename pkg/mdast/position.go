package mdast

// SourceRange represents a half-open byte range in the source content.
type SourceRange struct {
	// StartOffset is the byte index where the range begins (inclusive).
	StartOffset int `json:"start"`

	// EndOffset is the byte index where the range ends (exclusive).
	EndOffset int `json:"end"`
}

// Len returns the length of the range in bytes.
func (r SourceRange) Len() int {
	return r.EndOffset - r.StartOffset
}

// IsEmpty returns true if the range has zero length.
func (r SourceRange) IsEmpty() bool {
	return r.StartOffset == r.EndOffset
}

// Contains returns true if the given offset is within this range.
func (r SourceRange) Contains(offset int) bool {
	return offset >= r.StartOffset && offset < r.EndOffset
}

// Covers returns true if other lies entirely within r.
func (r SourceRange) Covers(other SourceRange) bool {
	return other.StartOffset >= r.StartOffset && other.EndOffset <= r.EndOffset
}

// Valid reports whether 0 <= start <= end <= length.
func (r SourceRange) Valid(length int) bool {
	return r.StartOffset >= 0 && r.StartOffset <= r.EndOffset && r.EndOffset <= length
}

// Union returns the smallest range covering both r and other.
func (r SourceRange) Union(other SourceRange) SourceRange {
	return SourceRange{
		StartOffset: min(r.StartOffset, other.StartOffset),
		EndOffset:   max(r.EndOffset, other.EndOffset),
	}
}

// Position represents a 1-based line and column in a file.
type Position struct {
	Line   int
	Column int
}

// IsValid returns true if this position has valid (positive) values.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Bytes returns the source bytes covered by the node, or nil when the node is unlocated.
func (n *Node) Bytes(content []byte) []byte {
	if !n.Located || !n.Source.Valid(len(content)) {
		return nil
	}
	return content[n.Source.StartOffset:n.Source.EndOffset]
}
