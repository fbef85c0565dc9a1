// Package clitest runs garnet commands against temporary projects in tests.
package clitest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/app"
)

// Harness is a temporary project directory plus isolated user settings.
type Harness struct {
	t            *testing.T
	Dir          string
	CacheDir     string
	SettingsFile string
	// Stdin is fed to prompting commands.
	Stdin string
}

// New creates a project directory with the given files and a settings file
// pointing the artifact cache into a temporary directory. scanRoots limits
// toolchain discovery; nil keeps the platform defaults.
func New(t *testing.T, files map[string]string, scanRoots ...string) *Harness {
	t.Helper()
	h := &Harness{t: t, Dir: t.TempDir(), CacheDir: filepath.Join(t.TempDir(), "cache")}
	for rel, content := range files {
		h.WriteFile(rel, content)
	}

	settings := fmt.Sprintf("cache_dir = %q\n", filepath.ToSlash(h.CacheDir))
	if scanRoots != nil {
		quoted := make([]string, 0, len(scanRoots))
		for _, root := range scanRoots {
			quoted = append(quoted, fmt.Sprintf("%q", filepath.ToSlash(root)))
		}
		settings += fmt.Sprintf("\n[toolchains]\nscan_roots = [%s]\n", strings.Join(quoted, ", "))
	}
	h.SettingsFile = filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(h.SettingsFile, []byte(settings), 0644))
	return h
}

// WriteFile writes content to a project relative path.
func (h *Harness) WriteFile(rel, content string) {
	h.t.Helper()
	p := filepath.Join(h.Dir, filepath.FromSlash(rel))
	require.NoError(h.t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(h.t, os.WriteFile(p, []byte(content), 0644))
}

// ReadFile reads a project relative path.
func (h *Harness) ReadFile(rel string) string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(h.Dir, filepath.FromSlash(rel)))
	require.NoError(h.t, err)
	return string(data)
}

// Exists reports whether a project relative path exists.
func (h *Harness) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(h.Dir, filepath.FromSlash(rel)))
	return err == nil
}

// Run executes garnet with args and returns what the command printed.
func (h *Harness) Run(args ...string) (string, error) {
	h.t.Helper()
	out := new(bytes.Buffer)
	a := app.New("v0.1.0")
	a.Writer = out
	a.ErrWriter = io.Discard
	a.Reader = strings.NewReader(h.Stdin)
	a.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"garnet", "--project", h.Dir, "--settings", h.SettingsFile}, args...)
	err := a.Run(full)
	return out.String(), err
}

// ExitCode returns the exit code carried by err, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Jar returns the bytes of a jar holding files.
func Jar(t *testing.T, files map[string]string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.String()
}

// JarEntries reads every entry of the jar at path.
func JarEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	entries := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		entries[f.Name] = string(data)
	}
	return entries
}
