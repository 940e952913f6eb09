package fsutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileMode applies to new output files written with mode 0.
const DefaultFileMode os.FileMode = 0o644

// WriteAtomic replaces path with content so readers such as a browser
// polling an exported page never observe a half-written file. The bytes go
// to a sibling temp file which is synced and renamed over path.
//
// A zero mode keeps the permissions of an existing file, or uses
// DefaultFileMode for a new one. The parent directory must exist.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if mode == 0 {
		mode = DefaultFileMode
		if stat, err := os.Stat(path); err == nil {
			mode = stat.Mode().Perm()
		}
	}

	tmpPath, err := writeTemp(path, content)
	if err != nil {
		return classifyWrite(path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return classifyWrite(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return classifyWrite(path, err)
	}
	return nil
}

// writeTemp stores content in a new temp file next to path and returns
// its name. The temp file is gone again when an error is returned.
func writeTemp(path string, content []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}

	_, err = tmp.Write(content)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// WriteAtomicIfChanged is WriteAtomic that leaves path alone when it
// already holds content, so repeated exports keep modification times
// stable. It reports whether a write happened.
func WriteAtomicIfChanged(ctx context.Context, path string, content []byte, mode os.FileMode) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}

	same, err := holds(path, content)
	if err != nil {
		return false, classifyWrite(path, err)
	}
	if same {
		return false, nil
	}
	if err := WriteAtomic(ctx, path, content, mode); err != nil {
		return false, err
	}
	return true, nil
}

// holds reports whether the file at path contains exactly content. A
// missing file holds nothing.
func holds(path string, content []byte) (bool, error) {
	stat, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	case stat.IsDir():
		return false, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	case stat.Size() != int64(len(content)):
		return false, nil
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(existing, content), nil
}

func classifyWrite(path string, err error) error {
	switch {
	case errors.Is(err, ErrIsDirectory):
		return err
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, filepath.Dir(path), err)
	default:
		return fmt.Errorf("write %s: %w", path, err)
	}
}
