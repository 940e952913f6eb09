package cli

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/pkg/export"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/resolve"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type mapFlags struct {
	renderFlags
	format string
}

func newMapCommand(g *globalFlags) *cobra.Command {
	flags := &mapFlags{}

	cmd := &cobra.Command{
		Use:   "map FILE",
		Short: "Print the source map of a Markdown file",
		Long: `Render a Markdown file and print its source map: one entry per annotated
element with the element's id, its tag, the source range it came from and,
for elements holding text, the range of that text.

Examples:
  mdsync map README.md
  mdsync map README.md --format json`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, g, flags, args[0])
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().StringVar(&flags.format, "format", formatTable, "output format: table, json")

	return cmd
}

func runMap(cmd *cobra.Command, g *globalFlags, flags *mapFlags, path string) error {
	if flags.format != formatTable && flags.format != formatJSON {
		return usagef("invalid format %q: must be %s or %s", flags.format, formatTable, formatJSON)
	}

	ctx := cmd.Context()
	logger := g.logger()
	cfg, err := loadConfig(ctx, g, logger, flags.overrides(cmd))
	if err != nil {
		return err
	}
	doc, err := loadDocument(ctx, path, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.format == formatJSON {
		data, err := export.SourceMapJSON(doc.pane.SourceMap())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	styles := pretty.NewStyles(pretty.IsColorEnabled(g.color, out))
	table := pretty.NewTableFormatter(styles, pretty.TerminalWidth(out))
	_, err = fmt.Fprint(out, table.FormatSourceMap(doc.pane.SourceMap(), doc.source))
	return err
}

type locateFlags struct {
	renderFlags
	offset int
	scroll int
}

func newLocateCommand(g *globalFlags) *cobra.Command {
	flags := &locateFlags{}

	cmd := &cobra.Command{
		Use:   "locate FILE --offset N",
		Short: "Show where the preview draws the caret for a source offset",
		Long: `Render a Markdown file, lay it out, and print the caret box the preview
draws for a byte offset in the source. Coordinates are relative to the
viewport after scrolling by --scroll pixels.

Example:
  mdsync locate README.md --offset 42`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, g, flags, args[0])
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "byte offset in the source")
	cmd.Flags().IntVar(&flags.scroll, "scroll", 0, "preview scroll offset in pixels")

	return cmd
}

func runLocate(cmd *cobra.Command, g *globalFlags, flags *locateFlags, path string) error {
	if !cmd.Flags().Changed("offset") {
		return usagef("--offset is required")
	}

	ctx := cmd.Context()
	logger := g.logger()
	cfg, err := loadConfig(ctx, g, logger, flags.overrides(cmd))
	if err != nil {
		return err
	}
	doc, err := loadDocument(ctx, path, cfg, logger)
	if err != nil {
		return err
	}

	doc.pane.SetScrollTop(flags.scroll)
	box, ok := doc.pane.Resolver().ResolveOffset(flags.offset)
	if !ok {
		return fmt.Errorf("%s: offset %d: %w", path, flags.offset, resolve.ErrNoCaret)
	}
	logger.Debug("caret located", logging.FieldOffset, flags.offset, "top", box.Top, "left", box.Left)

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(g.color, out))
	_, err = fmt.Fprint(out, styles.FormatCaret(path, flags.offset, box))
	return err
}

type hitFlags struct {
	renderFlags
	x, y   int
	scroll int
}

func newHitCommand(g *globalFlags) *cobra.Command {
	flags := &hitFlags{}

	cmd := &cobra.Command{
		Use:   "hit FILE --x X --y Y",
		Short: "Map a click in the preview back to a source offset",
		Long: `Render a Markdown file, lay it out, and print the source offset a click at
viewport point (X, Y) resolves to, with the source line it falls on.

Example:
  mdsync hit README.md --x 40 --y 30`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHit(cmd, g, flags, args[0])
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().IntVar(&flags.x, "x", 0, "horizontal viewport coordinate in pixels")
	cmd.Flags().IntVar(&flags.y, "y", 0, "vertical viewport coordinate in pixels")
	cmd.Flags().IntVar(&flags.scroll, "scroll", 0, "preview scroll offset in pixels")

	return cmd
}

func runHit(cmd *cobra.Command, g *globalFlags, flags *hitFlags, path string) error {
	if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
		return usagef("--x and --y are required")
	}

	ctx := cmd.Context()
	logger := g.logger()
	cfg, err := loadConfig(ctx, g, logger, flags.overrides(cmd))
	if err != nil {
		return err
	}
	doc, err := loadDocument(ctx, path, cfg, logger)
	if err != nil {
		return err
	}

	doc.pane.SetScrollTop(flags.scroll)
	pt := image.Pt(flags.x, flags.y)
	offset, ok := doc.pane.Resolver().ResolveClick(pt)
	if !ok {
		return fmt.Errorf("%s: point (%d,%d): %w", path, pt.X, pt.Y, resolve.ErrNoElement)
	}

	snap := mdast.NewSnapshot(path, doc.source)
	line, col := snap.LineAt(offset)
	text := string(snap.LineContent(line))
	logger.Debug("click resolved", logging.FieldX, pt.X, logging.FieldY, pt.Y, logging.FieldOffset, offset)

	out := cmd.OutOrStdout()
	styles := pretty.NewStyles(pretty.IsColorEnabled(g.color, out))
	_, err = fmt.Fprint(out, styles.FormatHit(path, offset, line, col, text))
	return err
}
