// Package lockfile_test contains tests for the lockfile package.
package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/garnet/internal/core/lockfile"
)

func TestNewLockfile(t *testing.T) {
	t.Parallel()
	lf := lockfile.New()
	assert.NotNil(t, lf, "New lockfile should not be nil")
	assert.Equal(t, lockfile.APIVersion, lf.ApiVersion, "API version mismatch")
	assert.NotNil(t, lf.Package, "Packages map should be initialized")
	assert.Empty(t, lf.Package, "Packages map should be empty initially")
}

func TestLoadLockfile_NotFound(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	lf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Load should not return error if lockfile not found")
	assert.NotNil(t, lf, "Loaded lockfile should not be nil even if not found")
	assert.Equal(t, lockfile.APIVersion, lf.ApiVersion, "API version mismatch for new lockfile")
	assert.Empty(t, lf.Package, "Packages map should be empty for new lockfile")
}

func TestLoadLockfile_Valid(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)

	content := `
api_version = "1"
[package."com.example:mylib"]
  source = "http://example.com/mylib-1.0.jar"
  version = "1.0"
  path = "libs/mylib.jar"
  hash = "sha256:abcdef123456"
`
	err := os.WriteFile(lockfilePath, []byte(content), 0600)
	require.NoError(t, err, "Failed to write mock lockfile")

	lf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Load returned an unexpected error for valid lockfile")
	assert.NotNil(t, lf)
	assert.Equal(t, "1", lf.ApiVersion)
	require.Contains(t, lf.Package, "com.example:mylib")
	assert.Equal(t, "http://example.com/mylib-1.0.jar", lf.Package["com.example:mylib"].Source)
	assert.Equal(t, "1.0", lf.Package["com.example:mylib"].Version)
	assert.Equal(t, "libs/mylib.jar", lf.Package["com.example:mylib"].Path)
	assert.Equal(t, "sha256:abcdef123456", lf.Package["com.example:mylib"].Hash)
}

func TestLoadLockfile_InvalidToml(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)

	content := `api_version = "1" this is invalid toml`
	err := os.WriteFile(lockfilePath, []byte(content), 0600)
	require.NoError(t, err, "Failed to write mock invalid lockfile")

	_, err = lockfile.Load(tempDir)
	require.Error(t, err, "Load should return an error for invalid TOML")
	assert.Contains(t, err.Error(), "failed to decode lockfile", "Error message mismatch")
}

func TestLoadLockfile_EmptyFile(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)

	err := os.WriteFile(lockfilePath, []byte(""), 0600) // Empty file
	require.NoError(t, err, "Failed to write empty mock lockfile")

	lf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Load should not error on an empty file")
	assert.NotNil(t, lf)
	assert.Equal(t, lockfile.APIVersion, lf.ApiVersion, "API version should default for empty file")
	assert.NotNil(t, lf.Package)
	assert.Empty(t, lf.Package, "Packages should be empty for empty file")
}

func TestLoadLockfile_MissingApiVersion(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)
	content := `
[package."com.example:mylib"]
  source = "http://example.com/mylib-1.0.jar"
  version = "1.0"
  path = "libs/mylib.jar"
  hash = "sha256:abcdef123456"
`
	err := os.WriteFile(lockfilePath, []byte(content), 0600)
	require.NoError(t, err, "Failed to write mock lockfile without api_version")

	lf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Load should not error if api_version is missing")
	assert.Equal(t, lockfile.APIVersion, lf.ApiVersion, "API version should default if missing")
	require.Contains(t, lf.Package, "com.example:mylib")
}

func TestSaveLockfile_New(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lf := lockfile.New()
	lf.Package["com.example:dep1"] = lockfile.PackageEntry{
		Source:  "http://example.com/dep1-1.0.jar",
		Version: "1.0",
		Path:    "vendor/dep1.jar",
		Hash:    "sha256:123",
		Scope:   "implementation",
	}

	err := lockfile.Save(tempDir, lf)
	require.NoError(t, err, "Save returned an unexpected error")

	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)
	_, err = os.Stat(lockfilePath)
	require.NoError(t, err, "Lockfile was not created")

	loadedLf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Failed to load saved lockfile")
	assert.Equal(t, lf, loadedLf, "Saved and loaded lockfiles do not match")
}

func TestSaveLockfile_Overwrite(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	lockfilePath := filepath.Join(tempDir, lockfile.LockfileName)

	// Initial content
	initialContent := `api_version = "0.5"`
	err := os.WriteFile(lockfilePath, []byte(initialContent), 0600)
	require.NoError(t, err, "Failed to write initial mock lockfile")

	lfToSave := lockfile.New() // This will have APIVersion = "1"
	lfToSave.Package["file:libs/newdep.jar"] = lockfile.PackageEntry{
		Source: "libs/newdep.jar",
		Path:   "/abs/libs/newdep.jar",
		Hash:   "sha256:abc",
		Scope:  "compileOnly",
	}

	err = lockfile.Save(tempDir, lfToSave)
	require.NoError(t, err, "Save returned an unexpected error when overwriting")

	loadedLf, err := lockfile.Load(tempDir)
	require.NoError(t, err, "Failed to load overwritten lockfile")
	assert.Equal(t, lfToSave.ApiVersion, loadedLf.ApiVersion)
	assert.Equal(t, lfToSave.Package["file:libs/newdep.jar"], loadedLf.Package["file:libs/newdep.jar"])
}

func TestAddOrUpdatePackage(t *testing.T) {
	t.Parallel()
	lf := lockfile.New()

	lf.AddOrUpdatePackage("a:libA", lockfile.PackageEntry{Source: "urlA", Version: "1", Path: "pathA", Hash: "hashA"})
	require.Contains(t, lf.Package, "a:libA")
	assert.Equal(t, "urlA", lf.Package["a:libA"].Source)
	assert.Equal(t, "pathA", lf.Package["a:libA"].Path)
	assert.Equal(t, "hashA", lf.Package["a:libA"].Hash)

	lf.AddOrUpdatePackage("a:libA", lockfile.PackageEntry{Source: "urlA_updated", Version: "2", Path: "pathA_updated", Hash: "hashA_updated"})
	assert.Equal(t, "urlA_updated", lf.Package["a:libA"].Source)
	assert.Equal(t, "2", lf.Package["a:libA"].Version)

	lf.AddOrUpdatePackage("b:libB", lockfile.PackageEntry{Source: "urlB"})
	assert.Len(t, lf.Package, 2, "Incorrect number of packages after adding multiple")
}

func TestAddOrUpdatePackage_NilMap(t *testing.T) {
	t.Parallel()
	lf := &lockfile.Lockfile{ApiVersion: "1", Package: nil} // Simulate a scenario where Package map is nil

	lf.AddOrUpdatePackage("c:libC", lockfile.PackageEntry{Source: "urlC"})
	require.NotNil(t, lf.Package, "Package map should be initialized by AddOrUpdatePackage")
	assert.Equal(t, "urlC", lf.Package["c:libC"].Source)
}

func TestPrune(t *testing.T) {
	t.Parallel()
	lf := lockfile.New()
	lf.AddOrUpdatePackage("keep", lockfile.PackageEntry{Version: "1"})
	lf.AddOrUpdatePackage("drop-b", lockfile.PackageEntry{})
	lf.AddOrUpdatePackage("drop-a", lockfile.PackageEntry{})

	removed := lf.Prune(map[string]bool{"keep": true})
	assert.Equal(t, []string{"drop-a", "drop-b"}, removed)
	assert.Len(t, lf.Package, 1)
	assert.Equal(t, map[string]string{"keep": "1"}, lf.Versions())
}
