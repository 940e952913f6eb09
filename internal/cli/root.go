// Package cli provides the Cobra command structure for mdsync.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	debug      bool
	configPath string
	color      string
	noConfig   bool
}

// logger returns the default logger at the level the flags ask for.
func (g *globalFlags) logger() *log.Logger {
	if g.debug {
		logging.SetLevel("debug")
	}
	return logging.Default()
}

// NewRootCommand creates the root mdsync command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "mdsync",
		Short: "Markdown preview with a source-mapped, synchronized cursor",
		Long: `mdsync renders Markdown to HTML in which every element remembers the
byte range of the source it came from. The source map that results lets a
preview translate clicks back into source offsets and draw the editor's
caret at the matching spot in the rendered output.

Use "mdsync preview" for a live, browser-based preview that follows a file
as it changes, or the render, map, locate and hit commands to inspect the
mapping from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "auto",
		"colorize output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flags.noConfig, "no-config", false,
		"ignore system, user and project config files")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(newRenderCommand(flags))
	rootCmd.AddCommand(newMapCommand(flags))
	rootCmd.AddCommand(newLocateCommand(flags))
	rootCmd.AddCommand(newHitCommand(flags))
	rootCmd.AddCommand(newExportCommand(flags))
	rootCmd.AddCommand(newPreviewCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))
	rootCmd.AddCommand(newVersionCommand(info))

	applyHelp(rootCmd, func() string { return flags.color })

	return rootCmd
}
