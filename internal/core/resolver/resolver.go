// Package resolver binds dependency declarations to concrete files: local
// paths inside the project, or artifacts fetched from Maven 2 repositories
// into a shared cache.
package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/downloader"
	"github.com/nightconcept/garnet/internal/core/hasher"
	"github.com/nightconcept/garnet/internal/core/logging"
	"github.com/nightconcept/garnet/internal/core/source"
)

// OriginLocal marks dependencies resolved from the project directory.
const OriginLocal = "local"

// Fetcher retrieves repository files. *downloader.Downloader implements it.
type Fetcher interface {
	DownloadFile(ctx context.Context, rawURL string) ([]byte, error)
}

// ResolvedDependency is a declaration bound to a concrete file.
type ResolvedDependency struct {
	Declaration descriptor.Dependency
	// Version is the concrete version for coordinates, empty for local files.
	Version string
	// Path is the absolute path of the resolved file.
	Path string
	// Origin is OriginLocal or the name of the repository that served the artifact.
	Origin string
	// Source is the declared path for local files or the artifact URL.
	Source string
	Hash   string
}

// ID returns the declaration's identifier.
func (r ResolvedDependency) ID() string {
	return r.Declaration.ID()
}

// Bundled reports whether the dependency is packaged into the artifact.
func (r ResolvedDependency) Bundled() bool {
	return r.Declaration.Bundled()
}

// Resolver resolves dependency declarations.
type Resolver struct {
	Fetcher  Fetcher
	CacheDir string
	// Locked maps dependency ids to previously resolved versions. A locked
	// version is preferred for dynamic selectors as long as it still matches.
	Locked      map[string]string
	Parallelism int
	// Offline restricts resolution to local files and the cache.
	Offline bool
}

// Resolve resolves every dependency of d concurrently. The result has one
// entry per declaration, in declaration order. The first failure cancels
// the remaining resolutions and is returned.
func (r *Resolver) Resolve(ctx context.Context, d *descriptor.ProjectDescriptor) ([]ResolvedDependency, error) {
	results := make([]ResolvedDependency, len(d.Dependencies))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, dep := range d.Dependencies {
		i, dep := i, dep
		g.Go(func() error {
			res, err := r.ResolveDependency(gctx, d, dep)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveDependency resolves a single declaration of d.
func (r *Resolver) ResolveDependency(ctx context.Context, d *descriptor.ProjectDescriptor, dep descriptor.Dependency) (ResolvedDependency, error) {
	if dep.IsLocal() {
		return r.resolveLocal(ctx, d.Root, dep)
	}
	return r.resolveRemote(ctx, d.Repositories, dep)
}

func (r *Resolver) resolveLocal(ctx context.Context, root string, dep descriptor.Dependency) (ResolvedDependency, error) {
	p := filepath.FromSlash(dep.File)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}

	info, err := os.Stat(p)
	if err == nil && info.IsDir() {
		err = eris.Errorf("%s is a directory", p)
	}
	if err != nil {
		return ResolvedDependency{}, &UnresolvedDependencyError{Coordinate: dep.File, Searched: []string{p}, Err: err}
	}

	hash, err := hasher.HashFile(p)
	if err != nil {
		return ResolvedDependency{}, err
	}
	logging.Log(ctx).Debug().Str("dep", dep.ID()).Str("path", p).Msg("resolved local file")
	return ResolvedDependency{
		Declaration: dep,
		Path:        p,
		Origin:      OriginLocal,
		Source:      dep.File,
		Hash:        hash,
	}, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, repos []descriptor.Repository, dep descriptor.Dependency) (ResolvedDependency, error) {
	coord, err := source.ParseCoordinate(dep.Coordinate)
	if err != nil {
		return ResolvedDependency{}, &UnresolvedDependencyError{Coordinate: dep.Coordinate, Err: err}
	}
	sel, err := source.ParseSelector(coord.Version)
	if err != nil {
		return ResolvedDependency{}, &UnresolvedDependencyError{Coordinate: dep.Coordinate, Err: err}
	}
	if r.CacheDir == "" {
		return ResolvedDependency{}, eris.New("resolver cache directory is not configured")
	}

	logger := logging.Log(ctx).With().Str("dep", dep.ID()).Logger()
	searched := []string{"cache (" + r.CacheDir + ")"}
	var failures []error

	version := ""
	if !sel.Dynamic() {
		version = sel.Raw
	} else if locked, ok := r.Locked[dep.ID()]; ok && sel.Matches(locked) {
		logger.Debug().Str("version", locked).Msg("using locked version")
		version = locked
	}

	// Local cache first, checked per repository in declaration order.
	if version != "" {
		for _, repo := range repos {
			if res, ok := r.fromCache(dep, coord, repo, version); ok {
				logger.Debug().Str("repo", repo.Name).Str("version", version).Msg("resolved from cache")
				return res, nil
			}
		}
	}

	if r.Offline {
		return ResolvedDependency{}, &UnresolvedDependencyError{
			Coordinate: dep.Coordinate,
			Searched:   searched,
			Err:        eris.New("not cached and running offline"),
		}
	}

	for _, repo := range repos {
		searched = append(searched, repo.Name+" ("+repo.URL+")")

		v := version
		if v == "" {
			picked, err := r.pickVersion(ctx, repo, coord, sel)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ResolvedDependency{}, ctxErr
				}
				logger.Debug().Err(err).Str("repo", repo.Name).Msg("no matching version")
				failures = append(failures, err)
				continue
			}
			v = picked
			if res, ok := r.fromCache(dep, coord, repo, v); ok {
				logger.Debug().Str("repo", repo.Name).Str("version", v).Msg("resolved from cache")
				return res, nil
			}
		}

		artifactURL := source.JoinURL(repo.URL, coord.ArtifactPath(v))
		data, err := r.Fetcher.DownloadFile(ctx, artifactURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ResolvedDependency{}, ctxErr
			}
			logger.Debug().Err(err).Str("repo", repo.Name).Msg("artifact not served")
			failures = append(failures, err)
			continue
		}
		if err := r.verifyChecksum(ctx, artifactURL, data); err != nil {
			failures = append(failures, err)
			continue
		}

		dest := r.cachePath(repo, coord, v)
		if err := downloader.WriteAtomic(dest, data); err != nil {
			return ResolvedDependency{}, err
		}
		hash, err := hasher.CalculateSHA256(data)
		if err != nil {
			return ResolvedDependency{}, err
		}
		logger.Info().Str("repo", repo.Name).Str("version", v).Msg("downloaded")
		return ResolvedDependency{
			Declaration: dep,
			Version:     v,
			Path:        dest,
			Origin:      repo.Name,
			Source:      artifactURL,
			Hash:        hash,
		}, nil
	}

	var cause error
	if len(failures) > 0 {
		cause = errors.Join(failures...)
	} else {
		cause = eris.New("no repositories configured")
	}
	return ResolvedDependency{}, &UnresolvedDependencyError{Coordinate: dep.Coordinate, Searched: searched, Err: cause}
}

func (r *Resolver) fromCache(dep descriptor.Dependency, coord *source.Coordinate, repo descriptor.Repository, version string) (ResolvedDependency, bool) {
	p := r.cachePath(repo, coord, version)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return ResolvedDependency{}, false
	}
	hash, err := hasher.HashFile(p)
	if err != nil {
		return ResolvedDependency{}, false
	}
	return ResolvedDependency{
		Declaration: dep,
		Version:     version,
		Path:        p,
		Origin:      repo.Name,
		Source:      source.JoinURL(repo.URL, coord.ArtifactPath(version)),
		Hash:        hash,
	}, true
}

// verifyChecksum compares data against the repository's .sha1 sidecar when
// one is published.
func (r *Resolver) verifyChecksum(ctx context.Context, artifactURL string, data []byte) error {
	sum, err := r.Fetcher.DownloadFile(ctx, artifactURL+".sha1")
	if err != nil {
		logging.Log(ctx).Debug().Err(err).Str("url", artifactURL).Msg("no checksum published")
		return nil
	}
	fields := strings.Fields(string(sum))
	if len(fields) == 0 {
		return nil
	}
	expected := strings.ToLower(fields[0])
	if actual := hasher.SHA1Hex(data); actual != expected {
		return eris.Errorf("checksum mismatch for %s: expected sha1 %s, got %s", artifactURL, expected, actual)
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func (r *Resolver) cachePath(repo descriptor.Repository, coord *source.Coordinate, version string) string {
	return filepath.Join(r.CacheDir, unsafeNameChars.ReplaceAllString(repo.Name, "_"), filepath.FromSlash(coord.ArtifactPath(version)))
}
