// Package packager assembles the distributable jar: the project's compiled
// classes and templated resources merged with its bundled dependencies.
package packager

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/downloader"
	"github.com/nightconcept/garnet/internal/core/hasher"
	"github.com/nightconcept/garnet/internal/core/logging"
	"github.com/nightconcept/garnet/internal/core/resolver"
	"github.com/nightconcept/garnet/internal/core/templater"
)

// ManifestPath is the jar manifest entry.
const ManifestPath = "META-INF/MANIFEST.MF"

// EntryTime is stamped on every entry so identical inputs give identical bytes.
var EntryTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// Input is everything that goes into one artifact.
type Input struct {
	Descriptor *descriptor.ProjectDescriptor
	// ClassesDir holds compiled output. A missing directory contributes nothing.
	ClassesDir string
	Resources  []templater.Resource
	// Bundled dependencies, in declaration order.
	Bundled    []resolver.ResolvedDependency
	OutputPath string
}

// Artifact describes a written jar.
type Artifact struct {
	Path    string
	Hash    string
	Size    int64
	Entries []string
}

type entry struct {
	data   []byte
	origin string
}

// Package writes the artifact for in. The first entry seen for a path wins;
// project output is added before dependencies, which are added in order.
func Package(ctx context.Context, in Input) (*Artifact, error) {
	if in.Descriptor == nil {
		return nil, eris.New("packager requires a descriptor")
	}
	logger := logging.Log(ctx)
	entries := map[string]entry{
		ManifestPath: {data: Manifest(in.Descriptor.Package.MainClass, in.Descriptor.Package.Manifest), origin: "manifest"},
	}
	add := func(name string, data []byte, origin string) {
		if existing, ok := entries[name]; ok {
			if existing.origin != origin {
				logger.Debug().Str("entry", name).Str("kept", existing.origin).Str("dropped", origin).Msg("duplicate entry")
			}
			return
		}
		entries[name] = entry{data: data, origin: origin}
	}

	if err := addDirectory(in.ClassesDir, "classes", add); err != nil {
		return nil, err
	}
	for _, res := range in.Resources {
		add(res.Path, res.Data, "resources")
	}
	for _, dep := range in.Bundled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addJar(dep, add); err != nil {
			return nil, err
		}
	}

	data, names, err := write(entries)
	if err != nil {
		return nil, err
	}
	if err := downloader.WriteAtomic(in.OutputPath, data); err != nil {
		return nil, eris.Wrapf(err, "failed to write artifact %s", in.OutputPath)
	}
	hash, err := hasher.CalculateSHA256(data)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("artifact", in.OutputPath).Int("entries", len(names)).Msg("packaged")
	return &Artifact{Path: in.OutputPath, Hash: hash, Size: int64(len(data)), Entries: names}, nil
}

// Excluded reports whether a dependency entry is dropped when shading.
func Excluded(name string) bool {
	upper := strings.ToUpper(name)
	switch {
	case upper == ManifestPath, upper == "META-INF/INDEX.LIST":
		return true
	case path.Base(name) == "module-info.class":
		return true
	case strings.HasPrefix(upper, "META-INF/") && !strings.Contains(strings.TrimPrefix(upper, "META-INF/"), "/"):
		switch path.Ext(upper) {
		case ".SF", ".DSA", ".RSA", ".EC":
			return true
		}
	}
	return false
}

func addDirectory(dir, origin string, add func(string, []byte, string)) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return eris.Wrapf(err, "failed to read %s", p)
		}
		add(filepath.ToSlash(rel), data, origin)
		return nil
	})
}

func addJar(dep resolver.ResolvedDependency, add func(string, []byte, string)) error {
	r, err := zip.OpenReader(dep.Path)
	if err != nil {
		return eris.Wrapf(err, "failed to open bundled dependency %s", dep.Declaration)
	}
	defer r.Close()

	origin := dep.Declaration.String()
	for _, f := range r.File {
		name := strings.TrimPrefix(f.Name, "/")
		if strings.HasSuffix(name, "/") || Excluded(name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "failed to read %s from %s", name, origin)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return eris.Wrapf(err, "failed to read %s from %s", name, origin)
		}
		add(name, data, origin)
	}
	return nil
}

// write renders the jar: the manifest first, then every other entry sorted
// by name with its parent directories made explicit.
func write(entries map[string]entry) ([]byte, []string, error) {
	dirs := make(map[string]bool)
	var files []string
	for name := range entries {
		if name == ManifestPath {
			continue
		}
		files = append(files, name)
		for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir+"/"] = true
		}
	}
	delete(dirs, "META-INF/")

	names := make([]string, 0, len(files)+len(dirs))
	names = append(names, files...)
	for dir := range dirs {
		names = append(names, dir)
	}
	sort.Strings(names)
	names = append([]string{"META-INF/", ManifestPath}, names...)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		header := &zip.FileHeader{Name: name, Modified: EntryTime}
		if strings.HasSuffix(name, "/") {
			header.Method = zip.Store
			header.SetMode(fs.ModeDir | 0755)
		} else {
			header.Method = zip.Deflate
			header.SetMode(0644)
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "failed to add %s", name)
		}
		if e, ok := entries[name]; ok {
			if _, err := w.Write(e.data); err != nil {
				return nil, nil, eris.Wrapf(err, "failed to write %s", name)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, nil, eris.Wrap(err, "failed to finish jar")
	}
	return buf.Bytes(), names, nil
}
