package configloader

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigPaths lists the configuration sources found for a working
// directory. Empty fields mean the source does not exist.
type ConfigPaths struct {
	System   string // /etc/mdsync/config.yaml, %ProgramData%\mdsync on Windows
	User     string // $XDG_CONFIG_HOME/mdsync/config.yaml
	Project  string // nearest .mdsync.yml at or above the working directory
	Explicit string // --config
	DotEnv   string // .env in the working directory
}

const appName = "mdsync"

//nolint:gochecknoglobals // read-only lookup tables
var (
	projectNames = []string{".mdsync.yml", ".mdsync.yaml", "mdsync.yml", "mdsync.yaml"}
	globalNames  = []string{"config.yaml", "config.yml"}
	repoMarkers  = []string{".git", ".hg", ".svn"}
)

// DiscoverPaths locates the system, user and project config files and the
// .env file that apply to workDir. The project search walks upward and
// stops at the first repository root or the home directory.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover config: %w", err)
	}

	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", workDir, err)
	}

	paths := &ConfigPaths{
		System: firstFile(systemDir(), globalNames),
		DotEnv: firstFile(abs, []string{".env"}),
	}
	if dir := userDir(); dir != "" {
		paths.User = firstFile(dir, globalNames)
	}

	for dir := range projectDirs(abs) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discover config: %w", err)
		}
		if found := firstFile(dir, projectNames); found != "" {
			paths.Project = found
			break
		}
	}

	return paths, nil
}

func systemDir() string {
	if runtime.GOOS != "windows" {
		return filepath.Join("/etc", appName)
	}
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return filepath.Join(programData, appName)
}

func userDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// projectDirs yields start and its ancestors, ending after a repository
// root, the home directory or the filesystem root.
func projectDirs(start string) iter.Seq[string] {
	home, _ := os.UserHomeDir()
	return func(yield func(string) bool) {
		for dir := start; ; {
			if !yield(dir) || isRepoRoot(dir) || dir == home {
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	}
}

func isRepoRoot(dir string) bool {
	for _, marker := range repoMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// firstFile returns the first of names that is a regular file in dir.
func firstFile(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
