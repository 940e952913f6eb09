package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/fsutil"
)

const defaultConfigFile = ".mdsync.yml"

const configHeader = `# mdsync configuration.
# Every key is optional; MDSYNC_* environment variables and flags override it.`

func newConfigCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create mdsync configuration",
	}

	cmd.AddCommand(newConfigShowCommand(g))
	cmd.AddCommand(newConfigEnvCommand())
	cmd.AddCommand(newConfigInitCommand(g))

	return cmd
}

func newConfigShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration mdsync would run with after merging defaults,
config files, the .env file and MDSYNC_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := g.logger()
			cfg, err := loadConfig(cmd.Context(), g, logger, nil)
			if err != nil {
				return err
			}
			data, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables mdsync reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, v := range configloader.ListEnvVars() {
				if _, err := fmt.Fprintf(out, "%-28s %s\n", v.Name, v.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type configInitFlags struct {
	force  bool
	output string
}

func newConfigInitCommand(g *globalFlags) *cobra.Command {
	flags := &configInitFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Create a .mdsync.yml in the current directory holding every setting at
its default value.

Examples:
  mdsync config init
  mdsync config init --output docs/.mdsync.yml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, g, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", defaultConfigFile, "output file path")

	return cmd
}

func runConfigInit(cmd *cobra.Command, g *globalFlags, flags *configInitFlags) error {
	logger := g.logger()

	absPath, err := filepath.Abs(flags.output)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil {
		if !flags.force {
			return usagef("file %q already exists; use --force to overwrite", flags.output)
		}
		logger.Warn("overwriting existing file", logging.FieldPath, flags.output)
	}

	content, err := config.NewConfig().ToYAMLWithHeader(configHeader)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if err := fsutil.WriteAtomic(cmd.Context(), absPath, content, 0); err != nil {
		return err
	}

	logger.Info("created configuration file", logging.FieldPath, flags.output)
	return nil
}
