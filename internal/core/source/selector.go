package source

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

// SelectorKind classifies how a version selector matches versions.
type SelectorKind int

const (
	// Exact matches a single literal version.
	Exact SelectorKind = iota
	// Prefix matches Gradle dynamic versions such as 0.8.+ or +.
	Prefix
	// Latest matches latest.release or latest.integration.
	Latest
	// Range matches Maven version ranges such as [1.0,2.0).
	Range
)

const snapshotSuffix = "-SNAPSHOT"

// Selector describes which versions of a coordinate are acceptable.
type Selector struct {
	Raw  string
	Kind SelectorKind

	prefix           string
	constraint       *semver.Constraints
	includeSnapshots bool
}

// ParseSelector parses the version part of a coordinate.
func ParseSelector(raw string) (*Selector, error) {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return nil, eris.New("empty version")
	case v == "latest.release":
		return &Selector{Raw: v, Kind: Latest}, nil
	case v == "latest.integration":
		return &Selector{Raw: v, Kind: Latest, includeSnapshots: true}, nil
	case strings.HasSuffix(v, "+"):
		prefix := strings.TrimSuffix(v, "+")
		if strings.Contains(prefix, "+") {
			return nil, eris.Errorf("invalid dynamic version '%s': '+' may only appear at the end", raw)
		}
		return &Selector{Raw: v, Kind: Prefix, prefix: prefix}, nil
	case strings.HasPrefix(v, "[") || strings.HasPrefix(v, "("):
		expr, err := mavenRangeToConstraint(v)
		if err != nil {
			return nil, err
		}
		c, err := semver.NewConstraint(expr)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid version range '%s'", raw)
		}
		return &Selector{Raw: v, Kind: Range, constraint: c}, nil
	case strings.ContainsAny(v, "[]()+,"):
		return nil, eris.Errorf("invalid version '%s'", raw)
	}
	return &Selector{Raw: v, Kind: Exact, includeSnapshots: true}, nil
}

// Dynamic reports whether the selector needs repository metadata to pick a version.
func (s *Selector) Dynamic() bool {
	return s.Kind != Exact
}

// Matches reports whether version satisfies the selector.
func (s *Selector) Matches(version string) bool {
	if !s.includeSnapshots && strings.HasSuffix(version, snapshotSuffix) {
		return false
	}
	switch s.Kind {
	case Exact:
		return version == s.Raw
	case Prefix:
		return strings.HasPrefix(version, s.prefix)
	case Latest:
		return true
	case Range:
		parsed, err := semver.NewVersion(version)
		if err != nil {
			return false
		}
		return s.constraint.Check(parsed)
	}
	return false
}

// Pick returns the highest version in available that satisfies the selector.
func (s *Selector) Pick(available []string) (string, error) {
	var matching []string
	for _, v := range available {
		if s.Matches(v) {
			matching = append(matching, v)
		}
	}
	if len(matching) == 0 {
		return "", eris.Errorf("no version matches '%s'", s.Raw)
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return CompareVersions(matching[i], matching[j]) < 0
	})
	return matching[len(matching)-1], nil
}

// CompareVersions orders two version strings, using semantic versioning when
// both parse and falling back to a lexical comparison otherwise.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}

// mavenRangeToConstraint translates Maven range syntax into a semver
// constraint expression. Multiple ranges are OR-ed.
func mavenRangeToConstraint(raw string) (string, error) {
	var groups []string
	rest := raw
	for rest != "" {
		rest = strings.TrimLeft(rest, " ,")
		if rest == "" {
			break
		}
		open := rest[0]
		if open != '[' && open != '(' {
			return "", eris.Errorf("invalid version range '%s': expected '[' or '('", raw)
		}
		end := strings.IndexAny(rest, "])")
		if end == -1 {
			return "", eris.Errorf("invalid version range '%s': unterminated range", raw)
		}
		closing := rest[end]
		body := rest[1:end]
		rest = rest[end+1:]

		if !strings.Contains(body, ",") {
			if open != '[' || closing != ']' || strings.TrimSpace(body) == "" {
				return "", eris.Errorf("invalid version range '%s': single versions must be written [x]", raw)
			}
			groups = append(groups, "= "+strings.TrimSpace(body))
			continue
		}

		bounds := strings.SplitN(body, ",", 2)
		lo, hi := strings.TrimSpace(bounds[0]), strings.TrimSpace(bounds[1])
		var parts []string
		if lo != "" {
			if open == '[' {
				parts = append(parts, ">= "+lo)
			} else {
				parts = append(parts, "> "+lo)
			}
		}
		if hi != "" {
			if closing == ']' {
				parts = append(parts, "<= "+hi)
			} else {
				parts = append(parts, "< "+hi)
			}
		}
		if len(parts) == 0 {
			parts = append(parts, "*")
		}
		groups = append(groups, strings.Join(parts, ", "))
	}
	if len(groups) == 0 {
		return "", eris.Errorf("invalid version range '%s'", raw)
	}
	return strings.Join(groups, " || "), nil
}
