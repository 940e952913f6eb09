package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/resolve"
)

// Exit codes for mdsync.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitNoResult indicates the command ran but had nothing to report: the
	// document failed to render, or an offset or point mapped to nothing.
	ExitNoResult = 1

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrRenderFailed is returned when a document renders to the error placeholder.
var ErrRenderFailed = errors.New("document failed to render")

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// exactFile accepts exactly one positional argument, the Markdown file.
func exactFile(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usagef("expected exactly one Markdown file, got %d arguments", len(args))
	}
	return nil
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage usageError
	var invalid *configloader.ValidationError
	switch {
	case errors.As(err, &usage):
		return ExitInvalidUsage
	case errors.As(err, &invalid):
		return ExitConfigError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory):
		return ExitIOError
	case errors.Is(err, ErrRenderFailed),
		errors.Is(err, resolve.ErrNoCaret),
		errors.Is(err, resolve.ErrNoElement):
		return ExitNoResult
	default:
		return ExitInternalError
	}
}
