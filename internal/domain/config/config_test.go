package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/testutil"
	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

func TestDefaults_AreValid(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/var/cache/crostini-setup/cros-ui-config_fixed.deb", cfg.FixedDebPath())
	assert.Equal(t, "/home/ubuntu", cfg.DefaultUserHome())
	assert.Equal(t, "/etc/gtk-3.0/settings.ini", cfg.InstalledSettingsPath())
	assert.Equal(t, "/etc/apt/trusted.gpg.d/cros.gpg", cfg.RepoKeyringPath())
	assert.Equal(t, []string{"cros-guest-tools", "adwaita-icon-theme-full"}, cfg.ToolPackages())
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	a := config.Defaults()
	b := a.Clone()
	b.Packages.Common[0] = "emacs"
	b.Archive.Keys = append(b.Archive.Keys, "0000000000000000")

	assert.Equal(t, "curl", a.Packages.Common[0])
	assert.Len(t, a.Archive.Keys, 2)
}

func TestParse_YAMLOverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	data := []byte(`
repo:
  suite: trixie
packages:
  common: [git, jq]
hostname:
  desired: devbox
`)
	cfg, err := config.Parse(data, config.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "trixie", cfg.Repo.Suite)
	assert.Equal(t, "main", cfg.Repo.Component)
	assert.Equal(t, []string{"git", "jq"}, cfg.Packages.Common)
	assert.Equal(t, "devbox", cfg.Hostname.Desired)
	assert.Equal(t, "crostini", cfg.Hostname.Default)
	assert.Equal(t, "/etc/apt/sources.list.d/cros.list", cfg.Paths.SourcesList)
}

func TestParse_TOMLOverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	data := []byte(`
[repo]
fallback_milestone = "118"

[paths]
work_dir = "/tmp/crostini"
`)
	cfg, err := config.Parse(data, config.FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "118", cfg.Repo.FallbackMilestone)
	assert.Equal(t, "bookworm", cfg.Repo.Suite)
	assert.Equal(t, "/tmp/crostini", cfg.Paths.WorkDir)
	assert.Equal(t, "/var/lib/crostini-setup/history.jsonl", cfg.Paths.History)
}

func TestParse_EmptyYAMLKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(nil, config.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("repo:\n  sute: trixie\n"), config.FormatYAML)
	require.Error(t, err)

	_, err = config.Parse([]byte("[repo]\nsute = \"trixie\"\n"), config.FormatTOML)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("empty path uses defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Defaults(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(filepath.Join(dir, "missing.yaml"))
		assert.True(t, config.IsUserError(err, config.ErrCodeConfigNotFound))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(filepath.Join(dir, "config.json"))
		assert.True(t, config.IsUserError(err, config.ErrCodeConfigFormat))
	})

	t.Run("syntax error carries line", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "broken.yml")
		require.NoError(t, os.WriteFile(path, []byte("repo:\n  suite: [\n"), 0o600))

		_, err := config.Load(path)
		ue := config.GetUserError(err)
		require.NotNil(t, ue)
		assert.Equal(t, config.ErrCodeConfigParse, ue.Code)
		assert.Contains(t, ue.Context, "broken.yml")
		assert.NotNil(t, errors.Unwrap(ue))
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[repo]\nkey_id = \"nothex\"\n"), 0o600))

		_, err := config.Load(path)
		assert.True(t, config.IsUserError(err, config.ErrCodeValidationFailed))
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "ok.toml")
		require.NoError(t, os.WriteFile(path, []byte("[hostname]\ndefault = \"chromebox\"\n"), 0o600))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "chromebox", cfg.Hostname.Default)
	})
}

func TestMarshal_RoundTrips(t *testing.T) {
	t.Parallel()

	for _, format := range []config.Format{config.FormatYAML, config.FormatTOML} {
		data, err := config.Defaults().Marshal(format)
		require.NoError(t, err)

		cfg, err := config.Parse(data, format)
		require.NoError(t, err, format)
		assert.Equal(t, config.Defaults(), cfg, format)
	}
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	f, ok := config.FormatFor("/etc/crostini-setup/config.YML")
	assert.True(t, ok)
	assert.Equal(t, config.FormatYAML, f)

	f, ok = config.FormatFor("setup.toml")
	assert.True(t, ok)
	assert.Equal(t, config.FormatTOML, f)

	_, ok = config.FormatFor("setup.ini")
	assert.False(t, ok)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	found := config.Locate(func(p string) bool { return p == "/etc/crostini-setup/config.toml" })
	assert.Equal(t, "/etc/crostini-setup/config.toml", found)
	assert.Empty(t, config.Locate(func(string) bool { return false }))
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Archive.Keys = []string{"short"}
	cfg.Repo.BaseURL = "ftp://example.com"
	cfg.Packages.Common = []string{"Bad Name"}
	cfg.Hostname.Desired = "no_underscores"
	cfg.Paths.WorkDir = "relative/dir"
	cfg.Users.GroupsFile = "../escape"

	err := cfg.Validate()
	require.Error(t, err)

	var list *config.ErrorList
	require.ErrorAs(t, err, &list)
	assert.Equal(t, 6, list.Len())

	fields := make([]string, 0, list.Len())
	for _, e := range list.Errors() {
		fields = append(fields, e.Context)
	}
	assert.Equal(t, []string{
		"archive.keys[0]",
		"repo.base_url",
		"users.groups_file",
		"packages.common[0]",
		"hostname.desired",
		"paths.work_dir",
	}, fields)
	assert.ErrorIs(t, list.Errors()[0], validation.ErrInvalidKeyID)
	assert.Contains(t, list.Format(), "Found 6 error(s)")
}

func TestValidate_RequiresGuestTools(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Packages.GuestTools = nil
	assert.Error(t, cfg.Validate())
}

func TestLoad_Fixtures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := config.Load(testutil.WriteFixtureToDir(t, dir, "config.yaml", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "121", cfg.Repo.FallbackMilestone)
	assert.Equal(t, []string{"curl", "git", "jq", "tmux"}, cfg.Packages.Common)
	assert.Equal(t, "devbox", cfg.Hostname.Desired)

	cfg, err = config.Load(testutil.WriteFixtureToDir(t, dir, "config.toml", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://keys.openpgp.org", cfg.Archive.Keyserver)
	assert.Equal(t, "https://mirror.example.com/cros-packages", cfg.Repo.BaseURL)
	assert.Equal(t, []string{"sudo", "video", "audio"}, cfg.Users.FallbackGroups)
	assert.Equal(t, "bookworm", cfg.Repo.Suite)
}
