package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/export"
	"github.com/yaklabco/mdsync/pkg/render"
)

type exportFlags struct {
	renderFlags
	outDir     string
	page       bool
	sourceMaps bool
	jobs       int
	ignore     []string
	follow     bool
}

func newExportCommand(g *globalFlags) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export [paths...] --out DIR",
		Short: "Render a tree of Markdown files to annotated HTML",
		Long: `Render every Markdown file under the given paths into DIR, mirroring the
directory layout. Files whose output would not change are left untouched.

By default, exports all .md and .markdown files under the current directory.
Hidden files and directories are skipped.

Examples:
  mdsync export --out site
  mdsync export docs/ --out site --page --maps
  mdsync export --out site --ignore "vendor/**"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, g, flags, args)
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().StringVar(&flags.outDir, "out", "", "output directory")
	cmd.Flags().BoolVar(&flags.page, "page", false, "write standalone HTML pages")
	cmd.Flags().BoolVar(&flags.sourceMaps, "maps", false, "write a .map.json source map next to each page")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to skip")
	cmd.Flags().BoolVar(&flags.follow, "follow-symlinks", false, "descend into symlinked directories")

	return cmd
}

func runExport(cmd *cobra.Command, g *globalFlags, flags *exportFlags, args []string) error {
	if flags.outDir == "" {
		return usagef("--out is required")
	}

	ctx := cmd.Context()
	logger := g.logger()
	cfg, err := loadConfig(ctx, g, logger, flags.overrides(cmd))
	if err != nil {
		return err
	}
	renderOpts, err := renderOptions(cfg, logger)
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	result, err := export.New(render.New(renderOpts)).Run(ctx, export.Options{
		Paths:          args,
		WorkingDir:     workDir,
		OutDir:         flags.outDir,
		ExcludeGlobs:   flags.ignore,
		FollowSymlinks: flags.follow,
		Jobs:           flags.jobs,
		Page:           flags.page,
		Layout:         previewOptions(cfg, logger).Layout,
		SourceMaps:     flags.sourceMaps,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	stats := result.Stats
	logger.Info("export finished",
		logging.FieldOutput, flags.outDir,
		logging.FieldFiles, stats.FilesDiscovered,
		logging.FieldWritten, stats.FilesWritten,
		logging.FieldUnchanged, stats.FilesUnchanged,
		logging.FieldFailed, stats.FilesFailed+stats.FilesErrored,
	)

	var errs []error
	for _, f := range result.Files {
		if f.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Error))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if stats.FilesFailed > 0 {
		return fmt.Errorf("%d of %d files: %w", stats.FilesFailed, stats.FilesDiscovered, ErrRenderFailed)
	}
	return nil
}
