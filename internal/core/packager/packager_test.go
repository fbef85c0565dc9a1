package packager_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/packager"
	"github.com/nightconcept/garnet/internal/core/resolver"
	"github.com/nightconcept/garnet/internal/core/templater"
)

func writeJar(t *testing.T, path string, files map[string]string) {
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
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func readJar(t *testing.T, path string) ([]string, map[string]string) {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	var names []string
	contents := make(map[string]string)
	for _, f := range r.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(data)
	}
	return names, contents
}

func writeClass(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func newDescriptor() *descriptor.ProjectDescriptor {
	d := descriptor.New()
	d.Project = descriptor.Identity{Group: "dev.furq", Name: "plugin", Version: "1.0.0"}
	return d
}

func TestPackage_ProjectOnly(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	classes := filepath.Join(tempDir, "classes")
	writeClass(t, classes, "dev/furq/Plugin.class", "plugin")

	out := filepath.Join(tempDir, "libs", "plugin-1.0.0.jar")
	artifact, err := packager.Package(context.Background(), packager.Input{
		Descriptor: newDescriptor(),
		ClassesDir: classes,
		Resources:  []templater.Resource{{Path: "manifest.json", Data: []byte(`{"version":"1.0.0"}`)}},
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, out, artifact.Path)
	assert.True(t, strings.HasPrefix(artifact.Hash, "sha256:"))

	names, contents := readJar(t, out)
	assert.Equal(t, []string{
		"META-INF/",
		"META-INF/MANIFEST.MF",
		"dev/",
		"dev/furq/",
		"dev/furq/Plugin.class",
		"manifest.json",
	}, names)
	assert.Equal(t, names, artifact.Entries)
	assert.Equal(t, "plugin", contents["dev/furq/Plugin.class"])
	assert.Equal(t, `{"version":"1.0.0"}`, contents["manifest.json"])
	assert.Equal(t, "Manifest-Version: 1.0\r\nCreated-By: garnet\r\n\r\n", contents["META-INF/MANIFEST.MF"])
}

func TestPackage_ShadesBundledDependencies(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	classes := filepath.Join(tempDir, "classes")
	writeClass(t, classes, "dev/furq/Plugin.class", "plugin")
	writeClass(t, classes, "shared/Conflict.class", "project")

	first := filepath.Join(tempDir, "deps", "first.jar")
	writeJar(t, first, map[string]string{
		"META-INF/MANIFEST.MF":  "Manifest-Version: 1.0\r\nMain-Class: other.Main\r\n",
		"META-INF/SIGNER.SF":    "sig",
		"META-INF/SIGNER.RSA":   "sig",
		"module-info.class":     "module",
		"lib/first/First.class": "first",
		"shared/Conflict.class": "first-dep",
		"shared/Common.class":   "from-first",
	})
	second := filepath.Join(tempDir, "deps", "second.jar")
	writeJar(t, second, map[string]string{
		"lib/second/Second.class": "second",
		"shared/Common.class":     "from-second",
	})

	d := newDescriptor()
	d.Package.MainClass = "dev.furq.Plugin"
	out := filepath.Join(tempDir, "out.jar")
	_, err := packager.Package(context.Background(), packager.Input{
		Descriptor: d,
		ClassesDir: classes,
		Bundled: []resolver.ResolvedDependency{
			{Declaration: descriptor.Dependency{File: "deps/first.jar", Scope: descriptor.ScopeImplementation}, Path: first},
			{Declaration: descriptor.Dependency{File: "deps/second.jar", Scope: descriptor.ScopeImplementation}, Path: second},
		},
		OutputPath: out,
	})
	require.NoError(t, err)

	names, contents := readJar(t, out)
	assert.Equal(t, "project", contents["shared/Conflict.class"])
	assert.Equal(t, "from-first", contents["shared/Common.class"])
	assert.Equal(t, "first", contents["lib/first/First.class"])
	assert.Equal(t, "second", contents["lib/second/Second.class"])
	assert.Contains(t, contents["META-INF/MANIFEST.MF"], "Main-Class: dev.furq.Plugin\r\n")
	assert.NotContains(t, contents["META-INF/MANIFEST.MF"], "other.Main")
	assert.NotContains(t, names, "META-INF/SIGNER.SF")
	assert.NotContains(t, names, "META-INF/SIGNER.RSA")
	assert.NotContains(t, names, "module-info.class")
	assert.Equal(t, "META-INF/MANIFEST.MF", names[1])
}

func TestPackage_IsDeterministic(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	classes := filepath.Join(tempDir, "classes")
	writeClass(t, classes, "b/B.class", "b")
	writeClass(t, classes, "a/A.class", "a")
	dep := filepath.Join(tempDir, "dep.jar")
	writeJar(t, dep, map[string]string{"z/Z.class": "z", "c/C.class": "c"})

	input := packager.Input{
		Descriptor: newDescriptor(),
		ClassesDir: classes,
		Bundled:    []resolver.ResolvedDependency{{Declaration: descriptor.Dependency{File: "dep.jar"}, Path: dep}},
	}

	input.OutputPath = filepath.Join(tempDir, "one.jar")
	first, err := packager.Package(context.Background(), input)
	require.NoError(t, err)

	// touch the inputs so only content can influence the output
	require.NoError(t, os.Chtimes(filepath.Join(classes, "a", "A.class"), packager.EntryTime, packager.EntryTime))

	input.OutputPath = filepath.Join(tempDir, "two.jar")
	second, err := packager.Package(context.Background(), input)
	require.NoError(t, err)

	one, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	two, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, one, two)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestPackage_MissingClassesDir(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	out := filepath.Join(tempDir, "out.jar")
	artifact, err := packager.Package(context.Background(), packager.Input{
		Descriptor: newDescriptor(),
		ClassesDir: filepath.Join(tempDir, "missing"),
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"META-INF/", "META-INF/MANIFEST.MF"}, artifact.Entries)
}

func TestPackage_BadDependencyArchive(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	notAJar := filepath.Join(tempDir, "broken.jar")
	require.NoError(t, os.WriteFile(notAJar, []byte("not a zip"), 0644))

	_, err := packager.Package(context.Background(), packager.Input{
		Descriptor: newDescriptor(),
		Bundled:    []resolver.ResolvedDependency{{Declaration: descriptor.Dependency{File: "broken.jar"}, Path: notAJar}},
		OutputPath: filepath.Join(tempDir, "out.jar"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.jar")
}

func TestExcluded(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]bool{
		"META-INF/MANIFEST.MF":                      true,
		"META-INF/INDEX.LIST":                       true,
		"META-INF/CERT.SF":                          true,
		"META-INF/cert.dsa":                         true,
		"META-INF/KEY.EC":                           true,
		"module-info.class":                         true,
		"META-INF/versions/9/module-info.class":     true,
		"META-INF/services/org.example.Service":     false,
		"META-INF/maven/org.example/pom.properties": false,
		"org/example/Thing.class":                   false,
	} {
		assert.Equal(t, want, packager.Excluded(name), name)
	}
}

func TestManifest_WrapsLongLines(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 150)
	m := string(packager.Manifest("", map[string]string{"Class-Path": long, "Built-By": "ci"}))

	lines := strings.Split(strings.TrimSuffix(m, "\r\n\r\n"), "\r\n")
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 72)
	}
	assert.Equal(t, "Built-By: ci", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Class-Path: "))
	assert.True(t, strings.HasPrefix(lines[4], " "))

	unwrapped := strings.ReplaceAll(m, "\r\n ", "")
	assert.Contains(t, unwrapped, "Class-Path: "+long+"\r\n")
}

func TestManifest_WrapsOnRuneBoundaries(t *testing.T) {
	t.Parallel()
	title := strings.Repeat("é", 60)
	m := string(packager.Manifest("", map[string]string{"Implementation-Titl": title}))

	lines := strings.Split(strings.TrimSuffix(m, "\r\n\r\n"), "\r\n")
	require.Greater(t, len(lines), 3)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 72)
		assert.True(t, utf8.ValidString(line), "line %q", line)
	}

	unwrapped := strings.ReplaceAll(m, "\r\n ", "")
	assert.Contains(t, unwrapped, "Implementation-Titl: "+title+"\r\n")
}
