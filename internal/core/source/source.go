// Package source parses dependency coordinates and version selectors and
// maps them onto the Maven 2 repository layout.
package source

import (
	"fmt"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultExtension is the packaging assumed when a coordinate does not name one.
const DefaultExtension = "jar"

// Coordinate is a parsed remote dependency of the form
// group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate analyzes a coordinate string and returns its parts.
func ParseCoordinate(raw string) (*Coordinate, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, eris.New("empty coordinate")
	}

	ext := DefaultExtension
	if at := strings.LastIndex(trimmed, "@"); at != -1 {
		ext = trimmed[at+1:]
		trimmed = trimmed[:at]
		if ext == "" {
			return nil, eris.Errorf("invalid coordinate '%s': empty extension after '@'", raw)
		}
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, eris.Errorf("invalid coordinate '%s': expected group:artifact:version[:classifier]", raw)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" || strings.ContainsAny(p, " \t/\\") {
			return nil, eris.Errorf("invalid coordinate '%s': part %d is empty or contains illegal characters", raw, i+1)
		}
	}

	c := &Coordinate{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Key identifies the coordinate independently of its version.
func (c Coordinate) Key() string {
	if c.Classifier != "" {
		return c.Group + ":" + c.Artifact + ":" + c.Classifier
	}
	return c.Group + ":" + c.Artifact
}

func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Extension != "" && c.Extension != DefaultExtension {
		s += "@" + c.Extension
	}
	return s
}

// FileName is the artifact file name for a concrete version.
func (c Coordinate) FileName(version string) string {
	name := c.Artifact + "-" + version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	ext := c.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return name + "." + ext
}

// ArtifactPath returns the repository-relative path of the artifact file,
// e.g. org/spongepowered/mixin/0.8.7/mixin-0.8.7.jar.
func (c Coordinate) ArtifactPath(version string) string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, version, c.FileName(version))
}

// MetadataPath returns the repository-relative path of maven-metadata.xml.
func (c Coordinate) MetadataPath() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, "maven-metadata.xml")
}

// JoinURL appends a repository-relative path to a repository base URL.
func JoinURL(base, rel string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(rel, "/"))
}
