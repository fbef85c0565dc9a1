// Package toolchain discovers installed JDKs and selects one by language version.
package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/logging"
)

// Toolchain is an installed JDK.
type Toolchain struct {
	Home            string
	Version         string
	LanguageVersion int
	Vendor          string
}

func (t Toolchain) String() string {
	if t.Vendor != "" {
		return fmt.Sprintf("%d (%s %s, %s)", t.LanguageVersion, t.Vendor, t.Version, t.Home)
	}
	return fmt.Sprintf("%d (%s, %s)", t.LanguageVersion, t.Version, t.Home)
}

// Javac returns the path of the compiler executable.
func (t Toolchain) Javac() string {
	name := "javac"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(t.Home, "bin", name)
}

// ToolchainUnavailableError is returned when no installed toolchain has the
// requested language version.
type ToolchainUnavailableError struct {
	Required int
	Found    []string
}

func (e *ToolchainUnavailableError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("toolchain unavailable: language version %d required, no toolchains found", e.Required)
	}
	return fmt.Sprintf("toolchain unavailable: language version %d required, found %s", e.Required, strings.Join(e.Found, "; "))
}

// DefaultScanRoots are the platform directories searched for JDK homes.
func DefaultScanRoots() []string {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".jdks"), filepath.Join(home, ".sdkman", "candidates", "java"))
	}
	switch runtime.GOOS {
	case "darwin":
		roots = append(roots, "/Library/Java/JavaVirtualMachines")
	case "windows":
		roots = append(roots, `C:\Program Files\Java`, `C:\Program Files\Eclipse Adoptium`)
	default:
		roots = append(roots, "/usr/lib/jvm", "/usr/java", "/opt/java")
	}
	return roots
}

// Selector discovers toolchains. Paths are explicit homes and take
// precedence over JAVA_HOME, which takes precedence over ScanRoots children.
type Selector struct {
	Paths     []string
	ScanRoots []string
	// Getenv looks up environment variables; os.Getenv when nil.
	Getenv func(string) string
}

// Discover lists the toolchains found, in precedence order, without duplicates.
func (s *Selector) Discover(ctx context.Context) ([]Toolchain, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	candidates := append([]string{}, s.Paths...)
	if javaHome := getenv("JAVA_HOME"); javaHome != "" {
		candidates = append(candidates, javaHome)
	}
	for _, root := range s.ScanRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		var children []string
		for _, entry := range entries {
			if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			child := filepath.Join(root, entry.Name())
			if macHome := filepath.Join(child, "Contents", "Home"); isDir(macHome) {
				child = macHome
			}
			children = append(children, child)
		}
		sort.Strings(children)
		candidates = append(candidates, children...)
	}

	seen := make(map[string]bool)
	var found []Toolchain
	for _, home := range candidates {
		clean := filepath.Clean(home)
		if resolved, err := filepath.EvalSymlinks(clean); err == nil {
			clean = resolved
		}
		if seen[clean] {
			continue
		}
		seen[clean] = true

		tc, err := Inspect(clean)
		if err != nil {
			logging.Log(ctx).Debug().Err(err).Str("home", clean).Msg("skipping toolchain candidate")
			continue
		}
		found = append(found, *tc)
	}
	return found, nil
}

// Select returns the first discovered toolchain whose language version
// equals languageVersion exactly.
func (s *Selector) Select(ctx context.Context, languageVersion int) (*Toolchain, error) {
	found, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	var seen []string
	for i := range found {
		if found[i].LanguageVersion == languageVersion {
			logging.Log(ctx).Debug().Str("home", found[i].Home).Str("version", found[i].Version).Msg("selected toolchain")
			return &found[i], nil
		}
		seen = append(seen, found[i].String())
	}
	return nil, &ToolchainUnavailableError{Required: languageVersion, Found: seen}
}

// Inspect reads the release file of a JDK home.
func Inspect(home string) (*Toolchain, error) {
	data, err := os.ReadFile(filepath.Join(home, "release"))
	if err != nil {
		return nil, eris.Wrapf(err, "%s is not a toolchain home", home)
	}
	props := ParseRelease(data)
	version := props["JAVA_VERSION"]
	if version == "" {
		return nil, eris.Errorf("%s/release has no JAVA_VERSION", home)
	}
	lang, err := LanguageVersionOf(version)
	if err != nil {
		return nil, err
	}
	return &Toolchain{
		Home:            home,
		Version:         version,
		LanguageVersion: lang,
		Vendor:          props["IMPLEMENTOR"],
	}, nil
}

// ParseRelease parses the KEY="value" lines of a JDK release file.
func ParseRelease(data []byte) map[string]string {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		} else {
			value = strings.Trim(value, `"'`)
		}
		props[strings.TrimSpace(key)] = value
	}
	return props
}

// LanguageVersionOf returns the language (feature) version of a Java
// version string: "25" and "25.0.1" give 25, legacy "1.8.0_292" gives 8.
// Vendor patch components beyond the third ("17.0.8.1") are ignored.
func LanguageVersionOf(version string) (int, error) {
	normalized := strings.Replace(strings.TrimSpace(version), "_", "+", 1)
	core, suffix := normalized, ""
	if i := strings.IndexAny(normalized, "-+"); i != -1 {
		core, suffix = normalized[:i], normalized[i:]
	}
	if parts := strings.Split(core, "."); len(parts) > 3 {
		normalized = strings.Join(parts[:3], ".") + suffix
	}
	v, err := semver.NewVersion(normalized)
	if err != nil {
		return 0, eris.Wrapf(err, "unrecognized java version '%s'", version)
	}
	if v.Major() == 1 && v.Minor() > 0 {
		return int(v.Minor()), nil
	}
	if v.Major() == 0 {
		return 0, eris.Errorf("unrecognized java version '%s'", version)
	}
	return int(v.Major()), nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
