// Package configloader turns the layered mdsync configuration sources into
// one validated config.Config: defaults, system, user and project files, an
// explicit --config file, .env and MDSYNC_* variables, then flags.
package configloader

import (
	"context"
	"fmt"
	"os"

	"github.com/yaklabco/mdsync/pkg/config"
)

// LoadOptions selects which sources Load consults.
type LoadOptions struct {
	WorkingDir   string // defaults to the process working directory
	ExplicitPath string // --config; always read when set

	IgnoreSystemConfig  bool
	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool // skip both .env and MDSYNC_* variables

	// CLIConfig holds flag values and wins over every other source. Only
	// fields that are set override.
	CLIConfig *config.Config
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	Config     *config.Config
	Paths      *ConfigPaths
	LoadedFrom []string // files actually read, lowest precedence first
	Warnings   []string
}

// Load resolves the final configuration by merging all sources.
// Precedence (highest to lowest):
//  1. CLI flags (opts.CLIConfig)
//  2. Environment variables (MDSYNC_*), then .env in the working directory
//  3. Explicit config file (opts.ExplicitPath)
//  4. Project config (.mdsync.yml upward search)
//  5. User config ($XDG_CONFIG_HOME/mdsync/config.yaml)
//  6. System config (/etc/mdsync/config.yaml)
//  7. Defaults
//
// A config that fails validation is reported as joined *ValidationError values.
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	cfg := config.NewConfig()

	paths, err := DiscoverPaths(ctx, workDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath

	result := &LoadResult{Paths: paths}

	layers := []struct {
		name, path string
		skip       bool
	}{
		{"system", paths.System, opts.IgnoreSystemConfig},
		{"user", paths.User, opts.IgnoreUserConfig},
		{"project", paths.Project, opts.IgnoreProjectConfig},
		{"explicit", paths.Explicit, false},
	}
	for _, layer := range layers {
		if layer.skip || layer.path == "" {
			continue
		}
		if err := overlayFile(cfg, layer.path); err != nil {
			return nil, fmt.Errorf("load %s config: %w", layer.name, err)
		}
		result.LoadedFrom = append(result.LoadedFrom, layer.path)
	}

	if !opts.IgnoreEnv {
		lookup := lookupFunc(os.LookupEnv)
		if paths.DotEnv != "" {
			lookup, err = dotEnvLookup(paths.DotEnv)
			if err != nil {
				return nil, fmt.Errorf("load environment: %w", err)
			}
			result.LoadedFrom = append(result.LoadedFrom, paths.DotEnv)
		}
		if err := loadFromLookup(cfg, lookup); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}

	if opts.CLIConfig != nil {
		cfg = merge(cfg, opts.CLIConfig)
	}

	validation := Validate(cfg)
	if err := validation.Err(); err != nil {
		return nil, err
	}
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	result.Config = cfg
	return result, nil
}

// overlayFile decodes the YAML file at path over cfg. Keys the file omits
// keep their current values.
func overlayFile(cfg *config.Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if err := cfg.Overlay(content); err != nil {
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	return nil
}
