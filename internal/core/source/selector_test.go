package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/garnet/internal/core/source"
)

var availableVersions = []string{"0.7.11", "0.8.2", "0.8.5", "0.8.7", "0.8.10", "0.9.0-SNAPSHOT", "1.0.0", "1.1.0"}

func TestParseSelector_Kinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		kind    source.SelectorKind
		dynamic bool
	}{
		{"0.8.7", source.Exact, false},
		{"0.8.+", source.Prefix, true},
		{"+", source.Prefix, true},
		{"latest.release", source.Latest, true},
		{"latest.integration", source.Latest, true},
		{"[0.8,1.0)", source.Range, true},
		{"[1.0.0]", source.Range, true},
	}
	for _, tt := range tests {
		sel, err := source.ParseSelector(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.kind, sel.Kind, tt.raw)
		assert.Equal(t, tt.dynamic, sel.Dynamic(), tt.raw)
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "1.+.2", "[1.0", "[,]x", "(1.0)", "1.0,2.0"} {
		_, err := source.ParseSelector(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestSelector_Pick(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
	}{
		{"0.8.7", "0.8.7"},
		{"0.8.+", "0.8.10"},
		{"+", "1.1.0"},
		{"latest.release", "1.1.0"},
		{"[0.8,1.0)", "0.8.10"},
		{"[0.8.5,0.8.7]", "0.8.7"},
		{"(,0.8.0)", "0.7.11"},
		{"[1.0.0]", "1.0.0"},
		{"[0.1,0.2),[1.0,1.1)", "1.0.0"},
	}
	for _, tt := range tests {
		sel, err := source.ParseSelector(tt.raw)
		require.NoError(t, err, tt.raw)
		got, err := sel.Pick(availableVersions)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestSelector_SnapshotsOnlyForIntegration(t *testing.T) {
	t.Parallel()
	versions := []string{"1.0.0", "1.1.0-SNAPSHOT"}

	release, err := source.ParseSelector("latest.release")
	require.NoError(t, err)
	got, err := release.Pick(versions)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got)

	integration, err := source.ParseSelector("latest.integration")
	require.NoError(t, err)
	got, err = integration.Pick(versions)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0-SNAPSHOT", got)
}

func TestSelector_PickNoMatch(t *testing.T) {
	t.Parallel()
	sel, err := source.ParseSelector("2.+")
	require.NoError(t, err)
	_, err = sel.Pick(availableVersions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no version matches '2.+'")
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()
	assert.Negative(t, source.CompareVersions("0.8.2", "0.8.10"))
	assert.Positive(t, source.CompareVersions("1.0.0", "1.0.0-rc1"))
	assert.Zero(t, source.CompareVersions("1.0", "1.0.0"))
	assert.Positive(t, source.CompareVersions("1.0.0", "final-build"))
}
