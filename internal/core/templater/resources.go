package templater

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Rule applies Values to every resource whose relative path matches Match.
type Rule struct {
	Match  string
	Values map[string]string
}

// Resource is a file from the resource directory, possibly expanded.
type Resource struct {
	// Path is slash separated and relative to the resource directory.
	Path     string
	Data     []byte
	Mode     fs.FileMode
	Expanded bool
}

// Matches reports whether the rule applies to the slash separated relative
// path rel. Patterns without a slash also match against the base name.
func (r Rule) Matches(rel string) bool {
	if ok, _ := path.Match(r.Match, rel); ok {
		return true
	}
	if strings.HasPrefix(r.Match, "**/") {
		if ok, _ := path.Match(strings.TrimPrefix(r.Match, "**/"), path.Base(rel)); ok {
			return true
		}
	}
	if !strings.Contains(r.Match, "/") {
		ok, _ := path.Match(r.Match, path.Base(rel))
		return ok
	}
	return false
}

// Process reads every file under dir and expands the ones matched by a rule.
// When several rules match one file their values are merged, later rules
// winning. A missing dir yields an empty resource set.
func Process(dir string, rules []Rule) ([]Resource, error) {
	var resources []Resource
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := entry.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return eris.Wrapf(err, "failed to read resource %s", rel)
		}

		res := Resource{Path: rel, Data: data, Mode: info.Mode().Perm()}
		values, matched := valuesFor(rules, rel)
		if matched {
			expanded, err := Expand(string(data), values)
			if err != nil {
				var missing *TemplateKeyMissingError
				if errors.As(err, &missing) {
					missing.File = rel
					return missing
				}
				return err
			}
			res.Data = []byte(expanded)
			res.Expanded = true
		}
		resources = append(resources, res)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && isMissingRoot(dir) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(resources, func(i, j int) bool { return resources[i].Path < resources[j].Path })
	return resources, nil
}

// Write stores the resources below dir, replacing its previous contents.
func Write(dir string, resources []Resource) error {
	if err := os.RemoveAll(dir); err != nil {
		return eris.Wrapf(err, "failed to clear %s", dir)
	}
	for _, res := range resources {
		target := filepath.Join(dir, filepath.FromSlash(res.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return eris.Wrapf(err, "failed to create directory for %s", res.Path)
		}
		mode := res.Mode
		if mode == 0 {
			mode = 0644
		}
		if err := os.WriteFile(target, res.Data, mode); err != nil {
			return eris.Wrapf(err, "failed to write resource %s", res.Path)
		}
	}
	return nil
}

func valuesFor(rules []Rule, rel string) (map[string]string, bool) {
	var values map[string]string
	matched := false
	for _, rule := range rules {
		if !rule.Matches(rel) {
			continue
		}
		if values == nil {
			values = make(map[string]string)
		}
		matched = true
		for k, v := range rule.Values {
			values[k] = v
		}
	}
	return values, matched
}

func isMissingRoot(dir string) bool {
	_, err := os.Stat(dir)
	return errors.Is(err, fs.ErrNotExist)
}
