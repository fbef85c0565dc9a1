package toolchain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/garnet/internal/core/toolchain"
)

// fakeJDK creates a toolchain home with a release file and returns its path.
func fakeJDK(t *testing.T, parent, name, release string) string {
	t.Helper()
	home := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "release"), []byte(release), 0644))
	resolved, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	return resolved
}

func noEnv(string) string { return "" }

func TestLanguageVersionOf(t *testing.T) {
	t.Parallel()
	tests := map[string]int{
		"25":           25,
		"25.0.1":       25,
		"21.0.2+13":    21,
		"17-ea":        17,
		"1.8.0_292":    8,
		"11.0.22":      11,
		" 1.7.0_80 ":   7,
		"17.0.8.1":     17,
		"11.0.20.1":    11,
		"17.0.8.1+1-2": 17,
	}
	for in, want := range tests {
		got, err := toolchain.LanguageVersionOf(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := toolchain.LanguageVersionOf("banana")
	assert.Error(t, err)
}

func TestParseRelease(t *testing.T) {
	t.Parallel()
	props := toolchain.ParseRelease([]byte("# comment\nIMPLEMENTOR=\"Eclipse Adoptium\"\nJAVA_VERSION=\"25.0.1\"\nMODULES=\"java.base java.logging\"\nBROKEN\n"))
	assert.Equal(t, "Eclipse Adoptium", props["IMPLEMENTOR"])
	assert.Equal(t, "25.0.1", props["JAVA_VERSION"])
	assert.Equal(t, "java.base java.logging", props["MODULES"])
	assert.NotContains(t, props, "BROKEN")
}

func TestSelect_ExactMatch(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	fakeJDK(t, root, "jdk-21", `JAVA_VERSION="21.0.2"`)
	jdk25 := fakeJDK(t, root, "jdk-25", "JAVA_VERSION=\"25.0.1\"\nIMPLEMENTOR=\"Eclipse Adoptium\"")

	s := &toolchain.Selector{ScanRoots: []string{root}, Getenv: noEnv}
	tc, err := s.Select(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, jdk25, tc.Home)
	assert.Equal(t, 25, tc.LanguageVersion)
	assert.Equal(t, "Eclipse Adoptium", tc.Vendor)
	assert.Equal(t, filepath.Join(jdk25, "bin", "javac"), tc.Javac())
}

func TestSelect_FourPartVendorVersion(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	jdk17 := fakeJDK(t, root, "jdk-17.0.8.1", `JAVA_VERSION="17.0.8.1"`)

	s := &toolchain.Selector{ScanRoots: []string{root}, Getenv: noEnv}
	tc, err := s.Select(context.Background(), 17)
	require.NoError(t, err)
	assert.Equal(t, jdk17, tc.Home)
	assert.Equal(t, 17, tc.LanguageVersion)
}

func TestSelect_NoImplicitUpgradeOrDowngrade(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	fakeJDK(t, root, "jdk-21", `JAVA_VERSION="21.0.2"`)
	fakeJDK(t, root, "jdk-26", `JAVA_VERSION="26"`)

	s := &toolchain.Selector{ScanRoots: []string{root}, Getenv: noEnv}
	_, err := s.Select(context.Background(), 25)
	require.Error(t, err)

	var unavailable *toolchain.ToolchainUnavailableError
	require.True(t, errors.As(err, &unavailable), "expected ToolchainUnavailableError, got %T", err)
	assert.Equal(t, 25, unavailable.Required)
	assert.Len(t, unavailable.Found, 2)
	assert.Contains(t, err.Error(), "language version 25 required")
}

func TestSelect_NothingInstalled(t *testing.T) {
	t.Parallel()
	s := &toolchain.Selector{ScanRoots: []string{filepath.Join(t.TempDir(), "absent")}, Getenv: noEnv}
	_, err := s.Select(context.Background(), 25)
	var unavailable *toolchain.ToolchainUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Empty(t, unavailable.Found)
	assert.Contains(t, err.Error(), "no toolchains found")
}

func TestDiscover_PrecedenceAndDeduplication(t *testing.T) {
	t.Parallel()
	scan := t.TempDir()
	explicit := fakeJDK(t, t.TempDir(), "custom-25", `JAVA_VERSION="25"`)
	javaHome := fakeJDK(t, scan, "a-jdk-25", `JAVA_VERSION="25.0.2"`)
	fakeJDK(t, scan, "b-jdk-17", `JAVA_VERSION="17.0.10"`)
	require.NoError(t, os.MkdirAll(filepath.Join(scan, "not-a-jdk"), 0755))

	s := &toolchain.Selector{
		Paths:     []string{explicit},
		ScanRoots: []string{scan},
		Getenv: func(key string) string {
			if key == "JAVA_HOME" {
				return javaHome
			}
			return ""
		},
	}
	found, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 3, "JAVA_HOME is also under the scan root and must appear once")
	assert.Equal(t, explicit, found[0].Home)
	assert.Equal(t, javaHome, found[1].Home)
	assert.Equal(t, 17, found[2].LanguageVersion)

	tc, err := s.Select(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, explicit, tc.Home, "explicit paths win over JAVA_HOME")
}

func TestDiscover_MacOSLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	home := fakeJDK(t, filepath.Join(root, "temurin-25.jdk", "Contents"), "Home", `JAVA_VERSION="25"`)

	s := &toolchain.Selector{ScanRoots: []string{root}, Getenv: noEnv}
	found, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, home, found[0].Home)
}
