package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/server"
	"github.com/yaklabco/mdsync/pkg/config"
)

type previewFlags struct {
	renderFlags
	addr string
}

func newPreviewCommand(g *globalFlags) *cobra.Command {
	flags := &previewFlags{}

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Serve a live preview that follows the file and its cursor",
		Long: `Serve a live preview of a Markdown file over HTTP. The page re-renders
whenever the file is saved, draws the editor caret at the matching place in
the output, and sends clicks back as source offsets.

Examples:
  mdsync preview README.md
  mdsync preview README.md --addr 127.0.0.1:9000`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, g, flags, args[0])
		},
	}

	addRenderFlags(cmd, &flags.renderFlags)
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runPreview(cmd *cobra.Command, g *globalFlags, flags *previewFlags, path string) error {
	logger := logging.NewService(cmd.ErrOrStderr(), "mdsync", g.debug)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	overrides := flags.overrides(cmd)
	if cmd.Flags().Changed("addr") {
		overrides.Preview.Addr = flags.addr
	}
	cfg, err := loadConfig(ctx, g, logger, overrides)
	if err != nil {
		return err
	}

	opts, err := serverOptions(cfg, path, logger)
	if err != nil {
		return err
	}
	srv, err := server.New(ctx, opts)
	if err != nil {
		return err
	}

	logger.Info("previewing", logging.FieldPath, opts.Path, logging.FieldAddr, "http://"+opts.Addr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	logger.Info("preview stopped")
	return nil
}

func serverOptions(cfg *config.Config, path string, logger *log.Logger) (server.Options, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return server.Options{}, fmt.Errorf("resolve path: %w", err)
	}
	renderOpts, err := renderOptions(cfg, logger)
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{
		Path:   abs,
		Addr:   cfg.Preview.Addr,
		Render: renderOpts,
		Sync:   syncOptions(cfg, logger),
	}, nil
}
