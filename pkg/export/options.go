// Package export renders many Markdown files to annotated HTML in parallel.
package export

import (
	"github.com/charmbracelet/log"

	"github.com/yaklabco/mdsync/pkg/layout"
)

// Options controls a multi-file export.
type Options struct {
	// Paths are the files or directories to export. Empty means the working
	// directory.
	Paths []string

	// WorkingDir resolves relative Paths and anchors output paths. Empty means
	// the process working directory.
	WorkingDir string

	// OutDir receives the output tree, mirroring each file's path relative to
	// WorkingDir. Required.
	OutDir string

	// Extensions is the set of file extensions (lowercase, with leading dot)
	// considered Markdown. Defaults to DefaultExtensions().
	Extensions []string

	// ExcludeGlobs skip matching files and directories. Patterns are matched
	// against slash-separated paths relative to WorkingDir; "**" crosses
	// directories.
	ExcludeGlobs []string

	// FollowSymlinks controls whether directory symlinks are traversed.
	FollowSymlinks bool

	// Jobs caps concurrent renders. 0 or negative means runtime.NumCPU().
	Jobs int

	// Page wraps each fragment in a standalone HTML page styled with Layout.
	Page   bool
	Layout layout.Options

	// SourceMaps writes a <name>.map.json next to each HTML file.
	SourceMaps bool

	Logger *log.Logger
}

// DefaultExtensions returns the default set of Markdown file extensions.
func DefaultExtensions() []string {
	return []string{".md", ".markdown"}
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}
