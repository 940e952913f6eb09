package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/cursorsync"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/layout"
	"github.com/yaklabco/mdsync/pkg/preview"
	"github.com/yaklabco/mdsync/pkg/render"
)

// renderFlags override the render and layout sections of the config.
type renderFlags struct {
	flavor      string
	style       string
	noHighlight bool
	width       int
}

func addRenderFlags(cmd *cobra.Command, flags *renderFlags) {
	cmd.Flags().StringVar(&flags.flavor, "flavor", "", "Markdown flavor: commonmark, gfm")
	cmd.Flags().StringVar(&flags.style, "style", "", "chroma style for code highlighting")
	cmd.Flags().BoolVar(&flags.noHighlight, "no-highlight", false, "disable code highlighting")
	cmd.Flags().IntVar(&flags.width, "width", 0, "page width in pixels")
}

// overrides returns a config holding only the flags that were set.
func (f *renderFlags) overrides(cmd *cobra.Command) *config.Config {
	cfg := &config.Config{}
	if cmd.Flags().Changed("flavor") {
		cfg.Flavor = config.Flavor(f.flavor)
	}
	if cmd.Flags().Changed("style") {
		cfg.Render.HighlightStyle = f.style
	}
	if cmd.Flags().Changed("no-highlight") {
		cfg.Render.Highlight = config.Bool(!f.noHighlight)
	}
	if cmd.Flags().Changed("width") {
		cfg.Layout.Width = f.width
	}
	return cfg
}

// loadConfig resolves the configuration for a command run.
func loadConfig(ctx context.Context, g *globalFlags, logger *log.Logger, cliConfig *config.Config) (*config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	result, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:          workDir,
		ExplicitPath:        g.configPath,
		IgnoreSystemConfig:  g.noConfig,
		IgnoreUserConfig:    g.noConfig,
		IgnoreProjectConfig: g.noConfig,
		CLIConfig:           cliConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	cfg := result.Config
	logger.Debug("configuration loaded",
		logging.FieldConfig, result.LoadedFrom,
		logging.FieldFlavor, cfg.Flavor,
		logging.FieldStyle, cfg.Render.HighlightStyle,
		logging.FieldWidth, cfg.Layout.Width,
	)
	return cfg, nil
}

func renderOptions(cfg *config.Config, logger *log.Logger) (render.Options, error) {
	subs, err := render.SubRenderersByName(cfg.Render.SubRenderers)
	if err != nil {
		return render.Options{}, usageError{err}
	}
	return render.Options{
		Flavor:         string(cfg.Flavor),
		Highlight:      cfg.Render.HighlightEnabled(),
		HighlightStyle: cfg.Render.HighlightStyle,
		DetectLanguage: cfg.Render.DetectEnabled(),
		SubRenderers:   subs,
		Logger:         logger,
	}, nil
}

func previewOptions(cfg *config.Config, logger *log.Logger) preview.Options {
	return preview.Options{
		Layout: layout.Options{
			Width:      cfg.Layout.Width,
			Margin:     cfg.Layout.Margin,
			FontSize:   cfg.Layout.FontSize,
			LineHeight: cfg.Layout.LineHeight,
		},
		ViewportHeight: cfg.Layout.ViewportHeight,
		Logger:         logger,
	}
}

func syncOptions(cfg *config.Config, logger *log.Logger) cursorsync.Options {
	opts := cursorsync.DefaultOptions()
	opts.Preview = previewOptions(cfg, logger)
	opts.ScrollGuard = cfg.Sync.ScrollGuard
	opts.Debounce = cfg.Sync.Debounce
	opts.Logger = logger
	return opts
}

// document is one file rendered and laid out in a preview pane.
type document struct {
	path     string
	source   []byte
	renderer *render.Renderer
	result   *render.Result
	pane     *preview.Pane
}

// loadDocument reads, renders and lays out the file at path. A document that
// renders to the error placeholder is returned along with ErrRenderFailed.
func loadDocument(ctx context.Context, path string, cfg *config.Config, logger *log.Logger) (*document, error) {
	source, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	opts, err := renderOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	renderer := render.New(opts)
	result, err := renderer.Render(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}

	pane := preview.New(previewOptions(cfg, logger))
	if err := pane.Load(result); err != nil {
		return nil, err
	}

	doc := &document{path: path, source: source, renderer: renderer, result: result, pane: pane}
	logger.Debug("document rendered",
		logging.FieldPath, path,
		logging.FieldEntries, pane.SourceMap().Len(),
	)
	if result.Failed {
		return doc, fmt.Errorf("%s: %w: %w", path, ErrRenderFailed, result.Err)
	}
	return doc, nil
}
