package pretty

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

// Table formatting constants.
const (
	tablePadding     = 2
	tableColumnCount = 5 // ID, TYPE, SOURCE, TEXT, EXCERPT
	minIDWidth       = 6
	minTypeWidth     = 4
	minRangeWidth    = 6
	minExcerptWidth  = 20
	heavySeparator   = "="
	defaultTermWidth = 100
	noTextRange      = "-"
)

// TableRow represents a single row in the source map table.
type TableRow struct {
	ID       string
	NodeType string
	Source   string
	Text     string
	Excerpt  string
	Block    bool
}

// TableFormatter formats a source map as a styled table.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{styles: styles, termWidth: termWidth}
}

type columnWidths struct {
	id, typ, source, text, excerpt int
}

// FormatSourceMap formats every entry of m. source is the raw text the map
// was built from and supplies the excerpts.
func (t *TableFormatter) FormatSourceMap(m *sourcemap.Map, source []byte) string {
	if m == nil || m.Len() == 0 {
		return ""
	}

	rows := t.collectRows(m, source)
	widths := t.calculateColumnWidths(rows)

	var builder strings.Builder
	builder.WriteString(t.formatHeader(widths))
	builder.WriteString("\n")
	builder.WriteString(t.formatSeparator(widths))
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(t.formatRow(row, widths))
		builder.WriteString("\n")
	}
	builder.WriteString(t.formatSeparator(widths))
	builder.WriteString("\n")
	builder.WriteString(t.styles.TableLegend.Render(
		fmt.Sprintf("%d elements; bold rows are blocks; ranges are [start,end) byte offsets", len(rows))))
	builder.WriteString("\n")

	return builder.String()
}

func (t *TableFormatter) collectRows(m *sourcemap.Map, source []byte) []TableRow {
	entries := m.Entries()
	rows := make([]TableRow, 0, len(entries))
	for _, entry := range entries {
		row := TableRow{
			ID:       entry.ID,
			NodeType: entry.NodeType,
			Source:   fmt.Sprintf("[%d,%d)", entry.Source.StartOffset, entry.Source.EndOffset),
			Text:     noTextRange,
			Block:    entry.Block(),
		}
		excerpt := entry.Source
		if entry.Text != nil {
			row.Text = fmt.Sprintf("[%d,%d)", entry.Text.StartOffset, entry.Text.EndOffset)
			excerpt = *entry.Text
		}
		if excerpt.Valid(len(source)) {
			row.Excerpt = Excerpt(string(source[excerpt.StartOffset:excerpt.EndOffset]), 0)
		}
		rows = append(rows, row)
	}
	return rows
}

func (t *TableFormatter) calculateColumnWidths(rows []TableRow) columnWidths {
	widths := columnWidths{
		id:      minIDWidth,
		typ:     minTypeWidth,
		source:  minRangeWidth,
		text:    minRangeWidth,
		excerpt: minExcerptWidth,
	}
	for _, row := range rows {
		widths.id = max(widths.id, len(row.ID))
		widths.typ = max(widths.typ, len(row.NodeType))
		widths.source = max(widths.source, len(row.Source))
		widths.text = max(widths.text, len(row.Text))
		widths.excerpt = max(widths.excerpt, utf8.RuneCountInString(row.Excerpt))
	}

	fixed := widths.id + widths.typ + widths.source + widths.text + tablePadding*tableColumnCount
	if fixed+widths.excerpt > t.termWidth {
		widths.excerpt = max(minExcerptWidth, t.termWidth-fixed)
	}
	return widths
}

func (t *TableFormatter) formatHeader(w columnWidths) string {
	header := fmt.Sprintf(" %-*s  %-*s  %-*s  %-*s  %s",
		w.id, "ID", w.typ, "TYPE", w.source, "SOURCE", w.text, "TEXT", "EXCERPT")
	return t.styles.TableHeader.Render(header)
}

func (t *TableFormatter) formatSeparator(w columnWidths) string {
	total := w.id + w.typ + w.source + w.text + w.excerpt + tablePadding*tableColumnCount
	return t.styles.TableSeparator.Render(strings.Repeat(heavySeparator, total))
}

func (t *TableFormatter) formatRow(row TableRow, w columnWidths) string {
	style := t.styles.TableInlineRow
	if row.Block {
		style = t.styles.TableBlockRow
	}
	return fmt.Sprintf(" %s  %s  %s  %s  %s",
		style.Render(pad(row.ID, w.id)),
		t.styles.NodeType.Render(pad(row.NodeType, w.typ)),
		t.styles.Range.Render(pad(row.Source, w.source)),
		t.styles.Range.Render(pad(row.Text, w.text)),
		t.styles.Excerpt.Render(Excerpt(row.Excerpt, w.excerpt)),
	)
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

// Excerpt renders s on one line with newlines and tabs escaped, truncated to
// limit runes with a trailing ellipsis. A limit of zero disables truncation.
func Excerpt(s string, limit int) string {
	s = strings.NewReplacer("\n", `\n`, "\t", `\t`, "\r", `\r`).Replace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
