package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nightconcept/garnet/internal/core/source"
	"github.com/nightconcept/garnet/internal/core/templater"
)

// Format is the syntax a descriptor is written in.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the descriptor format from a file extension.
func FormatForPath(p string) Format {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// MalformedDescriptorError identifies the offending line and field of a
// descriptor that could not be parsed or failed validation.
type MalformedDescriptorError struct {
	File   string
	Line   int
	Field  string
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	var b strings.Builder
	b.WriteString("malformed descriptor")
	if e.File != "" {
		b.WriteString(" ")
		b.WriteString(e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// Parse decodes raw descriptor text and validates it. It has no side effects.
func Parse(data []byte, format Format) (*ProjectDescriptor, error) {
	d := &ProjectDescriptor{}
	switch format {
	case FormatYAML:
		if err := decodeYAML(data, d); err != nil {
			return nil, err
		}
	default:
		if err := decodeTOML(data, d); err != nil {
			return nil, err
		}
	}

	d.applyDefaults()
	if err := validate(d, data); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate applies defaults and checks a descriptor that was built or edited
// in code. Errors carry no line numbers.
func (d *ProjectDescriptor) Validate() error {
	d.applyDefaults()
	return validate(d, nil)
}

func decodeTOML(data []byte, d *ProjectDescriptor) error {
	md, err := toml.Decode(string(data), d)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return &MalformedDescriptorError{Line: perr.Position.Line, Field: perr.LastKey, Reason: perr.Message}
		}
		return &MalformedDescriptorError{Reason: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		key := undecoded[0].String()
		return &MalformedDescriptorError{
			Line:   lineOfKey(data, undecoded[0][len(undecoded[0])-1]),
			Field:  key,
			Reason: "unknown field",
		}
	}
	return nil
}

func decodeYAML(data []byte, d *ProjectDescriptor) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		if errors.Is(err, io.EOF) {
			return &MalformedDescriptorError{Field: "project", Reason: "descriptor is empty"}
		}
		msg := err.Error()
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			msg = typeErr.Errors[0]
		}
		line := 0
		if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		return &MalformedDescriptorError{Line: line, Reason: strings.TrimPrefix(msg, "yaml: ")}
	}
	return nil
}

func validate(d *ProjectDescriptor, raw []byte) error {
	fail := func(field, value, reason string) error {
		return &MalformedDescriptorError{Line: lineOfValue(raw, value), Field: field, Reason: reason}
	}

	if strings.TrimSpace(d.Project.Name) == "" {
		return fail("project.name", "", "required")
	}
	if strings.ContainsAny(d.Project.Name, "/\\ ") {
		return fail("project.name", d.Project.Name, "must not contain slashes or spaces")
	}
	if strings.TrimSpace(d.Project.Version) == "" {
		return fail("project.version", "", "required")
	}

	seenRepos := make(map[string]bool)
	for i := range d.Repositories {
		repo := &d.Repositories[i]
		field := fmt.Sprintf("repositories[%d]", i)
		switch strings.TrimSpace(repo.URL) {
		case "mavenCentral", "central":
			repo.URL = MavenCentralURL
			if repo.Name == "" {
				repo.Name = "central"
			}
		case "":
			return fail(field+".url", repo.Name, "required")
		}
		u, err := url.Parse(repo.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file") {
			return fail(field+".url", repo.URL, "must be an http, https or file URL")
		}
		if repo.Name == "" {
			repo.Name = u.Host
			if repo.Name == "" {
				repo.Name = u.Path
			}
		}
		if seenRepos[repo.Name] {
			return fail(field+".name", repo.Name, fmt.Sprintf("duplicate repository name '%s'", repo.Name))
		}
		seenRepos[repo.Name] = true
	}

	seenDeps := make(map[string]bool)
	for i, dep := range d.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		switch {
		case dep.File != "" && dep.Coordinate != "":
			return fail(field, dep.File, "set either file or coordinate, not both")
		case dep.File == "" && dep.Coordinate == "":
			return fail(field, "", "one of file or coordinate is required")
		case dep.Coordinate != "":
			c, err := source.ParseCoordinate(dep.Coordinate)
			if err != nil {
				return fail(field+".coordinate", dep.Coordinate, err.Error())
			}
			if _, err := source.ParseSelector(c.Version); err != nil {
				return fail(field+".coordinate", dep.Coordinate, err.Error())
			}
		}
		if dep.Scope != ScopeCompileOnly && dep.Scope != ScopeImplementation {
			return fail(field+".scope", dep.Scope, fmt.Sprintf("unknown scope '%s' (expected %s or %s)", dep.Scope, ScopeCompileOnly, ScopeImplementation))
		}
		if seenDeps[dep.ID()] {
			return fail(field, dep.String(), fmt.Sprintf("duplicate dependency '%s'", dep.ID()))
		}
		seenDeps[dep.ID()] = true
	}

	if d.Toolchain.LanguageVersion < 0 {
		return fail("toolchain.language_version", strconv.Itoa(d.Toolchain.LanguageVersion), "must be a positive integer")
	}

	dirs := []struct{ field, value string }{
		{"package.sources", d.Package.Sources},
		{"package.classes", d.Package.Classes},
		{"package.resources", d.Package.Resources},
		{"package.output", d.Package.Output},
	}
	for _, dir := range dirs {
		if !insideProject(dir.value) {
			return fail(dir.field, dir.value, "must be a relative path inside the project directory")
		}
	}

	props := d.Properties()
	for i := range d.Templates {
		rule := &d.Templates[i]
		field := fmt.Sprintf("templates[%d]", i)
		if strings.TrimSpace(rule.Match) == "" {
			return fail(field+".match", "", "required")
		}
		keys := make([]string, 0, len(rule.Expand))
		for k := range rule.Expand {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := templater.Expand(rule.Expand[k], props); err != nil {
				return fail(field+".expand."+k, rule.Expand[k], err.Error())
			}
		}
	}
	return nil
}

// insideProject reports whether rel names a directory strictly below the
// project root. Build outputs are deleted and recreated, so the root itself
// and anything outside it are rejected.
func insideProject(rel string) bool {
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return false
	}
	clean := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	return true
}

// lineOfValue returns the first line containing value as a quoted string, or 0.
func lineOfValue(raw []byte, value string) int {
	if value == "" {
		return 0
	}
	for _, quoted := range []string{`"` + value + `"`, `'` + value + `'`, value} {
		if idx := bytes.Index(raw, []byte(quoted)); idx != -1 {
			return bytes.Count(raw[:idx], []byte("\n")) + 1
		}
	}
	return 0
}

// lineOfKey returns the first line that assigns key, or 0.
func lineOfKey(raw []byte, key string) int {
	for i, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, key) {
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, key))
			if strings.HasPrefix(rest, "=") {
				return i + 1
			}
		}
	}
	return 0
}
