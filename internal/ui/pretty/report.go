package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/mdsync/pkg/caret"
)

// FormatCaret describes where the preview draws the caret for offset.
func (s *Styles) FormatCaret(path string, offset int, box caret.Box) string {
	return fmt.Sprintf("%s  %s  %s\n",
		s.FilePath.Render(path),
		s.Dim.Render(fmt.Sprintf("offset %d", offset)),
		s.Success.Render(fmt.Sprintf("top=%d left=%d height=%d", box.Top, box.Left, box.Height)),
	)
}

// FormatHit describes the raw offset a preview click resolved to, followed by
// the source line with a marker under the column.
func (s *Styles) FormatHit(path string, offset, line, column int, sourceLine string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s  %s\n",
		s.FilePath.Render(fmt.Sprintf("%s:%d:%d", path, line, column)),
		s.Success.Render(fmt.Sprintf("offset %d", offset)),
	))
	builder.WriteString(s.FormatSourceContext(sourceLine, column))
	return builder.String()
}

// FormatSourceContext formats the source line with a caret marker.
func (s *Styles) FormatSourceContext(line string, column int) string {
	var builder strings.Builder

	const indent = "    "

	builder.WriteString(indent + s.Excerpt.Render(line) + "\n")
	if column > 0 {
		builder.WriteString(indent + strings.Repeat(" ", column-1) + s.Caret.Render("^") + "\n")
	}

	return builder.String()
}
