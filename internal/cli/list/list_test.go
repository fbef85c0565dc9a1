package list_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/garnet/internal/cli/clitest"
	"github.com/nightconcept/garnet/internal/core/lockfile"
)

const projectToml = `
[project]
name = "better-console"
version = "1.0.0"

[[dependencies]]
file = "libs/hytale-api.jar"
scope = "compileOnly"

[[dependencies]]
file = "libs/gone.jar"

[[dependencies]]
coordinate = "org.spongepowered:mixin:0.8.7"
scope = "compileOnly"
`

func TestListCommand_NoDependencies(t *testing.T) {
	t.Parallel()
	h := clitest.New(t, map[string]string{"garnet.toml": "[project]\nname = \"empty\"\nversion = \"0.1.0\"\n"})

	out, err := h.Run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "empty@0.1.0 "+h.Dir)
	assert.Contains(t, out, "dependencies:")
	assert.Contains(t, out, "No dependencies found in garnet.toml.")
}

func TestListCommand_VariedStates(t *testing.T) {
	t.Parallel()
	h := clitest.New(t, map[string]string{
		"garnet.toml":         projectToml,
		"libs/hytale-api.jar": "api",
		lockfile.LockfileName: `
api_version = "1"

[package."file:libs/hytale-api.jar"]
source = "libs/hytale-api.jar"
path = "libs/hytale-api.jar"
hash = "sha256:aaaa"
scope = "compileOnly"
`,
	})

	out, err := h.Run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "file:libs/hytale-api.jar compileOnly sha256:aaaa libs/hytale-api.jar\n")
	assert.Contains(t, out, "file:libs/gone.jar implementation not locked libs/gone.jar (missing)\n")
	assert.Contains(t, out, "org.spongepowered:mixin compileOnly not locked \n")
}

func TestListCommand_AliasLs(t *testing.T) {
	t.Parallel()
	h := clitest.New(t, map[string]string{"garnet.toml": projectToml})

	listOut, err := h.Run("list")
	require.NoError(t, err)
	lsOut, err := h.Run("ls")
	require.NoError(t, err)
	assert.Equal(t, listOut, lsOut)
}

func TestListCommand_DescriptorNotFound(t *testing.T) {
	t.Parallel()
	h := clitest.New(t, nil)
	_, err := h.Run("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garnet.toml not found")
}
