// Package pretty renders mdsync's human-readable command output: the
// source map table and the caret and hit reports.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles used by the formatters. With color
// disabled every style renders text unchanged.
type Styles struct {
	Success  lipgloss.Style
	FilePath lipgloss.Style
	Dim      lipgloss.Style

	NodeType lipgloss.Style
	Range    lipgloss.Style
	Excerpt  lipgloss.Style
	Caret    lipgloss.Style

	TableHeader    lipgloss.Style
	TableBlockRow  lipgloss.Style
	TableInlineRow lipgloss.Style
	TableLegend    lipgloss.Style
	TableSeparator lipgloss.Style
}

// ANSI 256 palette indices.
const (
	colorRed    = "9"
	colorGreen  = "10"
	colorBlue   = "12"
	colorSilver = "7"
	colorGrey   = "8"
)

// NewStyles returns the styles for colored or plain output.
func NewStyles(colorEnabled bool) *Styles {
	base := lipgloss.NewStyle()
	if !colorEnabled {
		return &Styles{
			Success: base, FilePath: base, Dim: base,
			NodeType: base, Range: base, Excerpt: base, Caret: base,
			TableHeader: base, TableBlockRow: base, TableInlineRow: base,
			TableLegend: base, TableSeparator: base,
		}
	}

	fg := func(color string) lipgloss.Style { return base.Foreground(lipgloss.Color(color)) }
	return &Styles{
		Success:  fg(colorGreen).Bold(true),
		FilePath: base.Bold(true),
		Dim:      fg(colorGrey),

		NodeType: fg(colorBlue),
		Range:    fg(colorGrey),
		Excerpt:  fg(colorSilver),
		Caret:    fg(colorRed).Bold(true),

		TableHeader:    fg(colorSilver).Bold(true),
		TableBlockRow:  base.Bold(true),
		TableInlineRow: base,
		TableLegend:    fg(colorGrey).Italic(true),
		TableSeparator: fg(colorGrey),
	}
}

// IsColorEnabled resolves a --color mode for writer. "always" and "never"
// are absolute; anything else means auto, which colors only terminals and
// respects NO_COLOR.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
