package mdast

// Attributes written on rendered elements. The sanitizer allow-lists exactly these
// and the source map reads them back from the DOM.
const (
	AttrSourceStart = "data-source-start"
	AttrSourceEnd   = "data-source-end"
	AttrTextStart   = "data-text-start"
	AttrTextEnd     = "data-text-end"
)

// PositionAttrs lists every position attribute.
func PositionAttrs() []string {
	return []string{AttrSourceStart, AttrSourceEnd, AttrTextStart, AttrTextEnd}
}
