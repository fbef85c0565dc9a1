package resolver

import (
	"context"
	"encoding/xml"

	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/source"
)

// mavenMetadata is the subset of maven-metadata.xml needed to list versions.
type mavenMetadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest   string   `xml:"latest"`
		Release  string   `xml:"release"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func parseMetadata(data []byte) (*mavenMetadata, error) {
	var md mavenMetadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, eris.Wrap(err, "failed to parse maven-metadata.xml")
	}
	return &md, nil
}

// pickVersion lists the versions repo publishes for coord and returns the
// highest one the selector accepts.
func (r *Resolver) pickVersion(ctx context.Context, repo descriptor.Repository, coord *source.Coordinate, sel *source.Selector) (string, error) {
	metaURL := source.JoinURL(repo.URL, coord.MetadataPath())
	data, err := r.Fetcher.DownloadFile(ctx, metaURL)
	if err != nil {
		return "", err
	}
	md, err := parseMetadata(data)
	if err != nil {
		return "", eris.Wrapf(err, "invalid metadata at %s", metaURL)
	}
	versions := md.Versioning.Versions
	if len(versions) == 0 && md.Versioning.Release != "" {
		versions = []string{md.Versioning.Release}
	}
	version, err := sel.Pick(versions)
	if err != nil {
		return "", eris.Wrapf(err, "no published version of %s in %s", coord.Key(), repo.Name)
	}
	return version, nil
}
