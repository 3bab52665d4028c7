package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

// run executes lh with args against dataDir and returns stdout.
func run(t *testing.T, dataDir, backend string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--backend", backend, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir, backend string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, backend, args...)
	assert.NilError(t, err, "lh %s", strings.Join(args, " "))
	return out
}

func TestAddAndList(t *testing.T) {
	for _, backend := range []string{"sqlite", "json"} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()

			out := mustRun(t, dir, backend, "add", "https://go.dev", "--title", "Go", "--category", "Dev", "--favorite")
			assert.Check(t, is.Contains(out, "Added Go [Dev]"))
			mustRun(t, dir, backend, "add", "https://news.ycombinator.com", "--title", "Hacker News")

			out = mustRun(t, dir, backend, "list")
			assert.Check(t, is.Contains(out, "Hacker News"))
			assert.Check(t, is.Contains(out, "General"))
			assert.Assert(t, strings.Index(out, "Hacker News") < strings.Index(out, "Go "), "newest first:\n%s", out)

			out = mustRun(t, dir, backend, "list", "--filter", "favorites")
			assert.Check(t, is.Contains(out, "Go"))
			assert.Check(t, !strings.Contains(out, "Hacker News"))

			out = mustRun(t, dir, backend, "list", "--search", "YCOMB")
			assert.Check(t, is.Contains(out, "Hacker News"))
			assert.Check(t, !strings.Contains(out, "go.dev"))
		})
	}
}

func TestAdd_RejectsURLWithoutScheme(t *testing.T) {
	_, err := run(t, t.TempDir(), "sqlite", "add", "go.dev", "--title", "Go")
	assert.ErrorContains(t, err, "http://")
}

func TestList_UnknownSort(t *testing.T) {
	_, err := run(t, t.TempDir(), "sqlite", "list", "--sort", "random")
	assert.ErrorContains(t, err, "unknown sort")
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := t.TempDir()
	mustRun(t, src, "sqlite", "add", "https://go.dev", "--title", "Go", "--category", "Dev")
	mustRun(t, src, "sqlite", "add", "https://pkg.go.dev", "--title", "Packages", "--category", "Dev")

	for _, name := range []string{"backup.json", "bookmarks.html"} {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), name)
			out := mustRun(t, src, "sqlite", "export", file)
			assert.Check(t, is.Contains(out, "Exported 2 links"))

			dst := t.TempDir()
			out = mustRun(t, dst, "json", "import", file)
			assert.Check(t, is.Contains(out, "Imported 2 links"))

			out = mustRun(t, dst, "json", "list", "--category", "Dev")
			assert.Check(t, is.Contains(out, "Packages"))
			assert.Check(t, is.Contains(out, "Go"))
		})
	}
}

func TestImport_ReportsSkipped(t *testing.T) {
	file := filepath.Join(t.TempDir(), "backup.json")
	data := `[{"title": "Go", "url": "https://go.dev"}, {"title": "No url"}]`
	assert.NilError(t, os.WriteFile(file, []byte(data), 0o644))

	out := mustRun(t, t.TempDir(), "sqlite", "import", file)
	assert.Check(t, is.Contains(out, "Imported 1 links (1 skipped)"))
	assert.Check(t, is.Contains(out, "entry 1: missing url"))
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "sqlite", "settings")
	assert.Check(t, is.Contains(out, "dark_theme = true"))

	mustRun(t, dir, "sqlite", "settings", "proxy_port", "3128")
	out = mustRun(t, dir, "sqlite", "settings", "proxy_port")
	assert.Equal(t, strings.TrimSpace(out), "3128")

	_, err := run(t, dir, "sqlite", "settings", "proxy_port", "http")
	assert.Check(t, err != nil)

	_, err = run(t, dir, "sqlite", "settings", "color")
	assert.ErrorContains(t, err, "unknown setting")
}

func TestMigrate(t *testing.T) {
	out := mustRun(t, t.TempDir(), "sqlite", "migrate")
	assert.Check(t, is.Contains(out, "migrations complete"))

	_, err := run(t, t.TempDir(), "json", "migrate")
	assert.ErrorContains(t, err, "no migrations")
}
