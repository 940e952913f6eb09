package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/fsutil"
)

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("returns content and fingerprint", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "doc.md")
		require.NoError(t, os.WriteFile(path, []byte("# Title\n"), 0o644))

		content, info, err := fsutil.ReadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "# Title\n", string(content))
		assert.Equal(t, int64(8), info.Size)
		assert.Equal(t, path, info.Path)
	})

	t.Run("errors are categorised", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		_, _, err := fsutil.ReadFile(context.Background(), filepath.Join(dir, "missing.md"))
		require.ErrorIs(t, err, fsutil.ErrNotFound)

		_, _, err = fsutil.ReadFile(context.Background(), dir)
		require.ErrorIs(t, err, fsutil.ErrIsDirectory)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := fsutil.ReadFile(ctx, "whatever.md")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileInfoSameContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.md")
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	_, first, err := fsutil.ReadFile(ctx, path)
	require.NoError(t, err)

	// Rewriting identical bytes bumps the mod time but not the content.
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	_, second, err := fsutil.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, first.SameContent(second))

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	_, third, err := fsutil.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, first.SameContent(third))

	var none *fsutil.FileInfo
	assert.False(t, none.SameContent(first))
}

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes and overwrites", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.html")
		ctx := context.Background()

		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("<p>a</p>"), 0))
		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("<p>b</p>"), 0))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<p>b</p>", string(got))

		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, fsutil.DefaultFileMode, stat.Mode().Perm())

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp files left behind")
	})

	t.Run("fails for a missing directory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nope", "out.html")
		err := fsutil.WriteAtomic(context.Background(), path, []byte("x"), 0)
		require.ErrorIs(t, err, fsutil.ErrNotFound)
	})

	t.Run("keeps the mode of an existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "page.html")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		require.NoError(t, fsutil.WriteAtomic(context.Background(), path, []byte("new"), 0))

		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
	})

	t.Run("honours a cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := filepath.Join(t.TempDir(), "out.html")
		require.ErrorIs(t, fsutil.WriteAtomic(ctx, path, []byte("x"), 0), context.Canceled)
		assert.NoFileExists(t, path)
	})
}

func TestWriteAtomicIfChanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.json")
	ctx := context.Background()

	written, err := fsutil.WriteAtomicIfChanged(ctx, path, []byte("{}"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("{}"), 0)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("[]"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	_, err = fsutil.WriteAtomicIfChanged(ctx, filepath.Dir(path), []byte("{}"), 0)
	require.ErrorIs(t, err, fsutil.ErrIsDirectory)
}
