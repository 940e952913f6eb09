package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/export"
	"github.com/yaklabco/mdsync/pkg/fsutil"
)

type renderCmdFlags struct {
	renderFlags
	output  string
	mapPath string
	page    bool
}

func newRenderCommand(g *globalFlags) *cobra.Command {
	flags := &renderCmdFlags{}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a Markdown file to source-annotated HTML",
		Long: `Render a Markdown file to HTML. Every element carries data-source-start
and data-source-end attributes giving the byte range of the source it was
rendered from.

Examples:
  mdsync render README.md                  # HTML fragment on stdout
  mdsync render README.md --page -o out.html
  mdsync render README.md --map map.json   # also write the source map`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, flags, args[0])
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write HTML to this file instead of stdout")
	cmd.Flags().StringVar(&flags.mapPath, "map", "", "write the source map as JSON to this file")
	cmd.Flags().BoolVar(&flags.page, "page", false, "wrap the fragment in a standalone HTML page")

	return cmd
}

func runRender(cmd *cobra.Command, g *globalFlags, flags *renderCmdFlags, path string) error {
	ctx := cmd.Context()
	logger := g.logger()

	cfg, err := loadConfig(ctx, g, logger, flags.overrides(cmd))
	if err != nil {
		return err
	}

	doc, err := loadDocument(ctx, path, cfg, logger)
	if err != nil && !errors.Is(err, ErrRenderFailed) {
		return err
	}
	renderErr := err

	out := []byte(doc.result.HTML)
	if flags.page {
		out, err = renderPage(doc)
		if err != nil {
			return err
		}
	}

	if flags.output == "" {
		if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		if err := fsutil.WriteAtomic(ctx, flags.output, out, 0); err != nil {
			return err
		}
		logger.Info("wrote HTML", logging.FieldInput, path, logging.FieldOutput, flags.output)
	}

	if flags.mapPath != "" {
		data, err := export.SourceMapJSON(doc.pane.SourceMap())
		if err != nil {
			return err
		}
		if err := fsutil.WriteAtomic(ctx, flags.mapPath, data, 0); err != nil {
			return err
		}
		logger.Info("wrote source map",
			logging.FieldOutput, flags.mapPath,
			logging.FieldEntries, doc.pane.SourceMap().Len(),
		)
	}

	return renderErr
}

func renderPage(doc *document) ([]byte, error) {
	css, err := doc.renderer.StyleSheet()
	if err != nil {
		return nil, fmt.Errorf("highlight stylesheet: %w", err)
	}
	return export.Page(filepath.Base(doc.path), doc.result.HTML, css, doc.pane.Layout().Options())
}
