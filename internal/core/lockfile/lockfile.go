package lockfile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

const LockfileName = "garnet-lock.toml"
const APIVersion = "1"

// PackageEntry represents a single resolved dependency in the lockfile.
// Example:
// [package."org.spongepowered:mixin"]
//
//	source = "https://repo.spongepowered.org/.../mixin-0.8.7.jar"
//	version = "0.8.7"
//	path = "/home/me/.garnet/caches/spongepowered/org/spongepowered/mixin/0.8.7/mixin-0.8.7.jar"
//	hash = "sha256:<hash_value>"
//	scope = "compileOnly"
type PackageEntry struct {
	Source  string `toml:"source"`
	Version string `toml:"version,omitempty"`
	Path    string `toml:"path"`
	Hash    string `toml:"hash"`
	Scope   string `toml:"scope,omitempty"`
}

// Lockfile represents the structure of the garnet-lock.toml file.
type Lockfile struct {
	ApiVersion string                  `toml:"api_version"`
	Package    map[string]PackageEntry `toml:"package"`
}

// New creates a new Lockfile instance with default values.
func New() *Lockfile {
	return &Lockfile{
		ApiVersion: APIVersion,
		Package:    make(map[string]PackageEntry),
	}
}

// Load loads the lockfile from the given project root path.
// If the lockfile doesn't exist, it returns a new Lockfile instance.
func Load(projectRoot string) (*Lockfile, error) {
	lockfilePath := filepath.Join(projectRoot, LockfileName)
	lf := New()

	if _, err := os.Stat(lockfilePath); os.IsNotExist(err) {
		return lf, nil
	} else if err != nil {
		return nil, eris.Wrapf(err, "failed to stat lockfile %s", lockfilePath)
	}

	if _, err := toml.DecodeFile(lockfilePath, lf); err != nil {
		return nil, eris.Wrapf(err, "failed to decode lockfile %s", lockfilePath)
	}
	if lf.ApiVersion == "" {
		lf.ApiVersion = APIVersion
	}
	if lf.Package == nil {
		lf.Package = make(map[string]PackageEntry)
	}
	return lf, nil
}

// Save saves the lockfile to the given project root path.
func Save(projectRoot string, lf *Lockfile) error {
	lockfilePath := filepath.Join(projectRoot, LockfileName)
	file, err := os.Create(lockfilePath)
	if err != nil {
		return eris.Wrapf(err, "failed to create/truncate lockfile %s", lockfilePath)
	}
	defer func() { _ = file.Close() }()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(lf); err != nil {
		return eris.Wrapf(err, "failed to encode lockfile %s", lockfilePath)
	}
	return nil
}

// AddOrUpdatePackage adds or updates a package entry in the lockfile.
func (lf *Lockfile) AddOrUpdatePackage(id string, entry PackageEntry) {
	if lf.Package == nil {
		lf.Package = make(map[string]PackageEntry)
	}
	lf.Package[id] = entry
}

// Prune drops every entry whose id is not in keep and returns the removed ids.
func (lf *Lockfile) Prune(keep map[string]bool) []string {
	var removed []string
	for id := range lf.Package {
		if !keep[id] {
			removed = append(removed, id)
			delete(lf.Package, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// Versions returns the locked version of every entry that has one.
func (lf *Lockfile) Versions() map[string]string {
	versions := make(map[string]string, len(lf.Package))
	for id, entry := range lf.Package {
		if entry.Version != "" {
			versions[id] = entry.Version
		}
	}
	return versions
}
