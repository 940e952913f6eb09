package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/internal/cli"
)

const testDocument = "# Title\n\nSome **bold** text\n"

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs mdsync with config files ignored and color disabled.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(testInfo)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-config", "--color", "never"}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func TestIntegration_Render(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, testDocument)

	out, err := execute(t, "render", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<h1 data-source-start="0"`), out)
	assert.Contains(t, out, `<strong data-source-start="14"`)
	assert.NotContains(t, out, "<!DOCTYPE html>")
}

func TestIntegration_RenderToFiles(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, testDocument)
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "out.html")
	mapPath := filepath.Join(dir, "map.json")

	out, err := execute(t, "render", doc, "--page", "-o", htmlPath, "--map", mapPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<!DOCTYPE html>")
	assert.Contains(t, string(page), ".mdsync-caret")
	assert.Contains(t, string(page), `<h1 data-source-start="0"`)

	data, err := os.ReadFile(mapPath)
	require.NoError(t, err)
	var entries []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "h1-0", entries[0].ID)
}

func TestIntegration_Map(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, testDocument)

	out, err := execute(t, "map", doc)
	require.NoError(t, err)
	for _, want := range []string{"ID", "h1-0", "[0,7)", "[2,7)", "p-9", "strong-14", "3 elements"} {
		assert.Contains(t, out, want)
	}

	out, err = execute(t, "map", doc, "--format", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 3)
}

func TestIntegration_LocateThenHit(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, testDocument)

	out, err := execute(t, "locate", doc, "--offset", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "offset 2")

	var top, left, height int
	idx := strings.Index(out, "top=")
	require.GreaterOrEqual(t, idx, 0, out)
	_, err = fmt.Sscanf(out[idx:], "top=%d left=%d height=%d", &top, &left, &height)
	require.NoError(t, err)
	assert.Positive(t, height)

	out, err = execute(t, "hit", doc, "--x", strconv.Itoa(left+1), "--y", strconv.Itoa(top+1))
	require.NoError(t, err)
	assert.Contains(t, out, doc+":1:")
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "^")
}

func TestIntegration_Errors(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, testDocument)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing file", []string{"render", filepath.Join(t.TempDir(), "none.md")}, cli.ExitIOError},
		{"no file argument", []string{"render"}, cli.ExitInvalidUsage},
		{"two file arguments", []string{"map", doc, doc}, cli.ExitInvalidUsage},
		{"unknown flag", []string{"render", doc, "--bogus"}, cli.ExitInvalidUsage},
		{"bad format", []string{"map", doc, "--format", "xml"}, cli.ExitInvalidUsage},
		{"locate without offset", []string{"locate", doc}, cli.ExitInvalidUsage},
		{"hit without y", []string{"hit", doc, "--x", "1"}, cli.ExitInvalidUsage},
		{"invalid flavor", []string{"render", doc, "--flavor", "bogus"}, cli.ExitConfigError},
		{"invalid width", []string{"render", doc, "--width", "5"}, cli.ExitConfigError},
		{"click outside", []string{"hit", doc, "--x=-100", "--y=-100"}, cli.ExitNoResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, cli.ExitCode(err), err.Error())
		})
	}
}

func TestIntegration_ExplicitConfig(t *testing.T) {
	t.Parallel()
	doc := writeDoc(t, "```go\nx := 1\n```\n")
	cfgPath := filepath.Join(t.TempDir(), "mdsync.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("render:\n  highlight: false\n"), 0o644))

	out, err := execute(t, "render", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "<span class=")

	out, err = execute(t, "--config", cfgPath, "render", doc)
	require.NoError(t, err)
	assert.NotContains(t, out, "<span class=")

	// The flag wins over the file.
	out, err = execute(t, "--config", cfgPath, "render", doc, "--no-highlight=false")
	require.NoError(t, err)
	assert.Contains(t, out, "<span class=")
}

func TestIntegration_ConfigCommands(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, ".mdsync.yml")

	_, err := execute(t, "config", "init", "--output", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# mdsync configuration."))
	assert.Contains(t, string(data), "width: 800")

	_, err = execute(t, "config", "init", "--output", target)
	require.Error(t, err)
	assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCode(err))

	_, err = execute(t, "config", "init", "--output", target, "--force")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("layout:\n  width: 640\n"), 0o644))
	out, err := execute(t, "--config", target, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "width: 640")
	assert.Contains(t, out, "flavor: gfm")

	out, err = execute(t, "config", "env")
	require.NoError(t, err)
	assert.Contains(t, out, "MDSYNC_LAYOUT_WIDTH")
	assert.Contains(t, out, "MDSYNC_PREVIEW_ADDR")
}

func TestIntegration_Export(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "site")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.md"), []byte(testDocument), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "draft.md"), []byte("wip\n"), 0o644))

	_, err := execute(t, "export", src, "--out", out, "--maps", "--ignore", "draft.md")
	require.NoError(t, err)

	// src is outside the working directory, so outputs land at the top of out.
	html, err := os.ReadFile(filepath.Join(out, "readme.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<h1 data-source-start="0"`)
	assert.FileExists(t, filepath.Join(out, "readme.map.json"))
	assert.NoFileExists(t, filepath.Join(out, "draft.html"))

	_, err = execute(t, "export", src)
	require.Error(t, err)
	assert.Equal(t, cli.ExitInvalidUsage, cli.ExitCode(err))
}
