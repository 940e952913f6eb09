//go:build stave

package main

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

const binary = "bin/mdsync"

var Default = Build

var Aliases = map[string]any{
	"b": Build,
	"t": Test.Default,
	"l": Lint.Default,
	"c": Check,
	"p": Preview,
	"e": Docs,
}

type (
	Test st.Namespace
	Lint st.Namespace
	CI   st.Namespace
)

// Build compiles bin/mdsync when any source changed since the last build.
func Build() error {
	stale, err := target.Dir(binary, "cmd/", "pkg/", "internal/", "go.mod", "go.sum")
	if err != nil {
		return err
	}
	if !stale {
		fmt.Println(binary, "is up to date")
		return nil
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, "./cmd/mdsync")
}

// Install runs go install with version information.
func Install() error {
	return sh.RunV("go", "install", "-ldflags", ldflags(), "./cmd/mdsync")
}

// Check formats, lints and tests.
func Check() {
	st.SerialDeps(Lint.Fmt, Lint.Default, Test.Default)
}

// Preview serves README.md through a freshly built binary.
func Preview() error {
	st.Deps(Build)
	return sh.RunV(binary, "preview", "--debug", "README.md")
}

// Docs exports every Markdown file in the repository to site/ as
// standalone pages with source maps.
func Docs() error {
	st.Deps(Build)
	return sh.RunV(binary, "export", ".", "--out", "site", "--page", "--maps",
		"--ignore", "site/**", "--ignore", "_examples/**")
}

// Clean removes build and export output.
func Clean() error {
	for _, path := range []string{"bin", "site", "coverage.out"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Default runs the suite under gotestsum with the race detector.
func (Test) Default() error { return gotestsum("pkgname-and-test-fails") }

// Verbose runs the suite printing every test.
func (Test) Verbose() error { return gotestsum("standard-verbose") }

func gotestsum(format string) error {
	procs := cmp.Or(os.Getenv("STAVE_NUM_PROCESSORS"), "4")
	return sh.RunV("go", "tool", "gotestsum", "-f", format, "--",
		"-race", "-p", procs, "-parallel", procs,
		"-coverprofile=coverage.out", "-covermode=atomic", "./...")
}

// Default runs golangci-lint with --fix.
func (Lint) Default() error { return sh.RunV("golangci-lint", "run", "--fix", "./...") }

// Fmt rewrites Go sources with gofmt.
func (Lint) Fmt() error { return sh.RunV("gofmt", "-w", "cmd", "internal", "pkg") }

// Gate is what CI runs: format check, vet, lint, tests, tidy check and
// cross builds.
func (CI) Gate() {
	st.SerialDeps(CI.Fmt, CI.Vet, CI.Lint, Test.Default, CI.Tidy, CI.Cross)
}

// Fmt fails when gofmt would change anything.
func (CI) Fmt() error {
	out, err := sh.Output("gofmt", "-l", "cmd", "internal", "pkg")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("gofmt needed:\n%s", out)
	}
	return nil
}

// Vet runs go vet.
func (CI) Vet() error { return sh.RunV("go", "vet", "./...") }

// Lint runs golangci-lint without fixing.
func (CI) Lint() error { return sh.RunV("golangci-lint", "run", "./...") }

// Tidy fails when go mod tidy changes go.mod or go.sum.
func (CI) Tidy() error {
	before, err := modFiles()
	if err != nil {
		return err
	}
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	after, err := modFiles()
	if err != nil {
		return err
	}
	if !bytes.Equal(before, after) {
		return errors.New("go.mod or go.sum is not tidy")
	}
	return nil
}

func modFiles() ([]byte, error) {
	mod, err := os.ReadFile("go.mod")
	if err != nil {
		return nil, err
	}
	sum, err := os.ReadFile("go.sum")
	if err != nil {
		return nil, err
	}
	return append(mod, sum...), nil
}

// Cross builds the binary for each release platform without cgo.
func (CI) Cross() error {
	for _, platform := range []string{
		"linux/amd64", "linux/arm64", "darwin/amd64", "darwin/arm64", "windows/amd64",
	} {
		goos, goarch, _ := strings.Cut(platform, "/")
		env := map[string]string{"GOOS": goos, "GOARCH": goarch, "CGO_ENABLED": "0"}
		if err := sh.RunWith(env, "go", "build", "-o", os.DevNull, "./cmd/mdsync"); err != nil {
			return fmt.Errorf("%s: %w", platform, err)
		}
	}
	return nil
}

func ldflags() string {
	git := func(args ...string) string {
		out, err := sh.Output("git", args...)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(out)
	}
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s",
		cmp.Or(git("describe", "--tags", "--always", "--dirty"), "dev"),
		cmp.Or(git("rev-parse", "--short", "HEAD"), "none"),
		time.Now().UTC().Format(time.RFC3339))
}
