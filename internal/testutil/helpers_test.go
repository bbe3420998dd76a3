package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path := WriteTempFile(t, t.TempDir(), "config.yaml", "repo: {}\n")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "repo: {}\n", string(content))
}

func TestLoadFixture(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(LoadFixture(t, "settings.ini")), "InhibitAllGtkDialogs=1")
	assert.Contains(t, string(LoadFixture(t, "config.yaml")), "fallback_milestone")
}

func TestWriteFixtureToDir(t *testing.T) {
	t.Parallel()

	path := WriteFixtureToDir(t, t.TempDir(), "config.toml", "setup.toml")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[repo]")
}
