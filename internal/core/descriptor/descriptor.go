// Package descriptor defines the project descriptor model (garnet.toml /
// garnet.yaml) and parses raw descriptor text into it.
package descriptor

import (
	"path"
	"strings"

	"github.com/nightconcept/garnet/internal/core/templater"
)

// Dependency scopes.
const (
	// ScopeCompileOnly dependencies are on the compile classpath but never bundled.
	ScopeCompileOnly = "compileOnly"
	// ScopeImplementation dependencies are bundled into the packaged artifact.
	ScopeImplementation = "implementation"
)

// MavenCentralURL is the URL the mavenCentral shorthand expands to.
const MavenCentralURL = "https://repo.maven.apache.org/maven2"

// ProjectDescriptor is the parsed form of a descriptor file.
type ProjectDescriptor struct {
	Project      Identity        `toml:"project" yaml:"project"`
	Repositories []Repository    `toml:"repositories,omitempty" yaml:"repositories,omitempty"`
	Dependencies []Dependency    `toml:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Toolchain    Toolchain       `toml:"toolchain,omitempty" yaml:"toolchain,omitempty"`
	Package      PackageSettings `toml:"package,omitempty" yaml:"package,omitempty"`
	Templates    []TemplateRule  `toml:"templates,omitempty" yaml:"templates,omitempty"`

	// Root is the absolute project directory. Set by the loader, never encoded.
	Root string `toml:"-" yaml:"-"`
	// File is the descriptor path the project was loaded from.
	File string `toml:"-" yaml:"-"`
}

// Identity holds the project coordinates.
type Identity struct {
	Group       string `toml:"group,omitempty" yaml:"group,omitempty"`
	Name        string `toml:"name" yaml:"name"`
	Version     string `toml:"version" yaml:"version"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`
}

// Repository is a read-only Maven 2 layout repository.
type Repository struct {
	Name string `toml:"name,omitempty" yaml:"name,omitempty"`
	URL  string `toml:"url" yaml:"url"`
}

// Dependency is a single dependency declaration. Exactly one of File and
// Coordinate is set.
type Dependency struct {
	File       string `toml:"file,omitempty" yaml:"file,omitempty"`
	Coordinate string `toml:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	Scope      string `toml:"scope,omitempty" yaml:"scope,omitempty"`
}

// Toolchain is the requested compiler toolchain.
type Toolchain struct {
	LanguageVersion int `toml:"language_version,omitempty" yaml:"language_version,omitempty"`
}

// PackageSettings controls compilation inputs and the packaged artifact.
type PackageSettings struct {
	// Classifier is an opt-in suffix for the artifact name.
	Classifier string            `toml:"classifier,omitempty" yaml:"classifier,omitempty"`
	Sources    string            `toml:"sources,omitempty" yaml:"sources,omitempty"`
	Classes    string            `toml:"classes,omitempty" yaml:"classes,omitempty"`
	Resources  string            `toml:"resources,omitempty" yaml:"resources,omitempty"`
	Output     string            `toml:"output,omitempty" yaml:"output,omitempty"`
	MainClass  string            `toml:"main_class,omitempty" yaml:"main_class,omitempty"`
	Manifest   map[string]string `toml:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// TemplateRule expands placeholders in resources whose path matches Match.
type TemplateRule struct {
	Match  string            `toml:"match" yaml:"match"`
	Expand map[string]string `toml:"expand,omitempty" yaml:"expand,omitempty"`
}

// Values returns the rule's values with project properties such as
// ${project.version} substituted.
func (r TemplateRule) Values(props map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(r.Expand))
	for k, v := range r.Expand {
		expanded, err := templater.Expand(v, props)
		if err != nil {
			return nil, err
		}
		values[k] = expanded
	}
	return values, nil
}

// IsLocal reports whether the dependency is a local file reference.
func (d Dependency) IsLocal() bool {
	return d.File != ""
}

// Bundled reports whether the dependency is packaged into the artifact.
func (d Dependency) Bundled() bool {
	return d.Scope != ScopeCompileOnly
}

// ID is the stable identifier used for lockfile entries and CLI arguments:
// the slash-separated file path for local files, group:artifact[:classifier]
// for coordinates.
func (d Dependency) ID() string {
	if d.IsLocal() {
		return "file:" + path.Clean(strings.ReplaceAll(d.File, "\\", "/"))
	}
	parts := strings.Split(strings.SplitN(d.Coordinate, "@", 2)[0], ":")
	if len(parts) >= 4 {
		return parts[0] + ":" + parts[1] + ":" + parts[3]
	}
	if len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return d.Coordinate
}

// String returns the declaration as written.
func (d Dependency) String() string {
	if d.IsLocal() {
		return d.File
	}
	return d.Coordinate
}

// ArtifactClassifier returns the classifier appended to the artifact name,
// empty unless the descriptor sets one.
func (p PackageSettings) ArtifactClassifier() string {
	return strings.TrimSpace(p.Classifier)
}

// ArtifactName returns <name>-<version>[-<classifier>].jar.
func (d *ProjectDescriptor) ArtifactName() string {
	name := d.Project.Name + "-" + d.Project.Version
	if c := d.Package.ArtifactClassifier(); c != "" {
		name += "-" + c
	}
	return name + ".jar"
}

// Properties returns the project properties available to template values.
func (d *ProjectDescriptor) Properties() map[string]string {
	return map[string]string{
		"project.group":   d.Project.Group,
		"project.name":    d.Project.Name,
		"project.version": d.Project.Version,
	}
}

// New returns a descriptor with the defaults applied.
func New() *ProjectDescriptor {
	d := &ProjectDescriptor{}
	d.applyDefaults()
	return d
}

func (d *ProjectDescriptor) applyDefaults() {
	if d.Package.Sources == "" {
		d.Package.Sources = "src/main/java"
	}
	if d.Package.Classes == "" {
		d.Package.Classes = "build/classes"
	}
	if d.Package.Resources == "" {
		d.Package.Resources = "src/main/resources"
	}
	if d.Package.Output == "" {
		d.Package.Output = "build/libs"
	}
	for i := range d.Dependencies {
		if d.Dependencies[i].Scope == "" {
			d.Dependencies[i].Scope = ScopeImplementation
		}
	}
}
