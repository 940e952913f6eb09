// Command mdsync renders Markdown with source maps and serves a live
// preview whose caret follows the editor.
package main

import (
	"context"
	"os"

	"github.com/yaklabco/mdsync/internal/cli"
	"github.com/yaklabco/mdsync/internal/logging"
)

// Set with -ldflags "-X main.version=..." by the release build.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCommand(cli.BuildInfo{Version: version, Commit: commit, Date: date})

	err := root.ExecuteContext(context.Background())
	if err != nil {
		logging.Default().Error(root.Name()+" failed", logging.FieldError, err)
	}
	os.Exit(cli.ExitCode(err))
}
