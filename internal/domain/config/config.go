// Package config holds the installer settings: which keys, repository,
// packages and paths the Crostini steps operate on. Settings come from
// built-in defaults, optionally overridden by a YAML or TOML file.
package config

import (
	"path/filepath"
	"slices"
)

// Config is the complete installer configuration.
type Config struct {
	Archive  ArchiveConfig  `yaml:"archive" toml:"archive"`
	Repo     RepoConfig     `yaml:"repo" toml:"repo"`
	Users    UsersConfig    `yaml:"users" toml:"users"`
	UIConfig UIConfig       `yaml:"ui_config" toml:"ui_config"`
	Packages PackagesConfig `yaml:"packages" toml:"packages"`
	Hostname HostnameConfig `yaml:"hostname" toml:"hostname"`
	Paths    PathsConfig    `yaml:"paths" toml:"paths"`
}

// ArchiveConfig lists the Ubuntu archive signing keys a fresh container lacks.
type ArchiveConfig struct {
	Keys      []string `yaml:"keys" toml:"keys"`
	Keyserver string   `yaml:"keyserver" toml:"keyserver"`
}

// RepoConfig describes the ChromeOS cros-packages repository.
type RepoConfig struct {
	BaseURL           string `yaml:"base_url" toml:"base_url"`
	Suite             string `yaml:"suite" toml:"suite"`
	Component         string `yaml:"component" toml:"component"`
	FallbackMilestone string `yaml:"fallback_milestone" toml:"fallback_milestone"`
	KeyID             string `yaml:"key_id" toml:"key_id"`
	KeyringName       string `yaml:"keyring_name" toml:"keyring_name"`
}

// UsersConfig names the cloud-init default account and where its groups are saved.
type UsersConfig struct {
	Default        string   `yaml:"default" toml:"default"`
	FallbackGroups []string `yaml:"fallback_groups" toml:"fallback_groups"`
	GroupsFile     string   `yaml:"groups_file" toml:"groups_file"`
}

// UIConfig describes the cros-ui-config patch.
type UIConfig struct {
	Package      string `yaml:"package" toml:"package"`
	SettingsPath string `yaml:"settings_path" toml:"settings_path"`
	Key          string `yaml:"key" toml:"key"`
	Value        string `yaml:"value" toml:"value"`
	FixedDeb     string `yaml:"fixed_deb" toml:"fixed_deb"`
}

// PackagesConfig lists the packages each install step ensures.
type PackagesConfig struct {
	GuestTools []string `yaml:"guest_tools" toml:"guest_tools"`
	Extra      []string `yaml:"extra" toml:"extra"`
	Common     []string `yaml:"common" toml:"common"`
}

// HostnameConfig controls the post-reboot hostname step.
// When Desired is empty the operator is prompted with Default.
type HostnameConfig struct {
	Default          string `yaml:"default" toml:"default"`
	Desired          string `yaml:"desired" toml:"desired"`
	ContainerDefault string `yaml:"container_default" toml:"container_default"`
}

// PathsConfig holds every filesystem location the installer touches.
type PathsConfig struct {
	WorkDir        string `yaml:"work_dir" toml:"work_dir"`
	History        string `yaml:"history" toml:"history"`
	SourcesList    string `yaml:"sources_list" toml:"sources_list"`
	Sudoers        string `yaml:"sudoers" toml:"sudoers"`
	TrustedDir     string `yaml:"trusted_dir" toml:"trusted_dir"`
	TrustedKeyring string `yaml:"trusted_keyring" toml:"trusted_keyring"`
	Milestone      string `yaml:"milestone" toml:"milestone"`
	HomeRoot       string `yaml:"home_root" toml:"home_root"`
}

// Defaults returns the stock configuration for an Ubuntu container on ChromeOS.
func Defaults() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Keys:      []string{"7638D0442B90D010", "04EE7237B7D453EC"},
			Keyserver: "https://keyserver.ubuntu.com",
		},
		Repo: RepoConfig{
			BaseURL:           "https://storage.googleapis.com/cros-packages",
			Suite:             "bookworm",
			Component:         "main",
			FallbackMilestone: "120",
			KeyID:             "1397BC53640DB551",
			KeyringName:       "cros",
		},
		Users: UsersConfig{
			Default:        "ubuntu",
			FallbackGroups: []string{"adm", "dialout", "cdrom", "sudo", "audio", "video", "plugdev", "users", "input", "netdev"},
			GroupsFile:     "update-groups",
		},
		UIConfig: UIConfig{
			Package:      "cros-ui-config",
			SettingsPath: "./etc/gtk-3.0/settings.ini",
			Key:          "InhibitAllGtkDialogs",
			Value:        "0",
			FixedDeb:     "cros-ui-config_fixed.deb",
		},
		Packages: PackagesConfig{
			GuestTools: []string{"cros-guest-tools"},
			Extra:      []string{"adwaita-icon-theme-full"},
			Common:     []string{"curl", "wget", "git", "vim", "nano", "htop"},
		},
		Hostname: HostnameConfig{
			Default:          "crostini",
			ContainerDefault: "penguin",
		},
		Paths: PathsConfig{
			WorkDir:        "/var/cache/crostini-setup",
			History:        "/var/lib/crostini-setup/history.jsonl",
			SourcesList:    "/etc/apt/sources.list.d/cros.list",
			Sudoers:        "/etc/sudoers.d/90-cloud-init-users",
			TrustedDir:     "/etc/apt/trusted.gpg.d",
			TrustedKeyring: "/etc/apt/trusted.gpg",
			Milestone:      "/dev/.cros_milestone",
			HomeRoot:       "/home",
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Archive.Keys = slices.Clone(c.Archive.Keys)
	out.Users.FallbackGroups = slices.Clone(c.Users.FallbackGroups)
	out.Packages.GuestTools = slices.Clone(c.Packages.GuestTools)
	out.Packages.Extra = slices.Clone(c.Packages.Extra)
	out.Packages.Common = slices.Clone(c.Packages.Common)
	return &out
}

// FixedDebPath is where the patched cros-ui-config package is saved.
func (c *Config) FixedDebPath() string {
	return filepath.Join(c.Paths.WorkDir, c.UIConfig.FixedDeb)
}

// InstalledSettingsPath is where the patched settings file lands once the
// package is installed.
func (c *Config) InstalledSettingsPath() string {
	return filepath.Join("/", filepath.Clean(c.UIConfig.SettingsPath))
}

// DefaultUserHome is the home directory of the cloud-init default account.
func (c *Config) DefaultUserHome() string {
	return filepath.Join(c.Paths.HomeRoot, c.Users.Default)
}

// RepoKeyringPath is where the cros-packages signing key is installed.
func (c *Config) RepoKeyringPath() string {
	return filepath.Join(c.Paths.TrustedDir, c.Repo.KeyringName+".gpg")
}

// ToolPackages is every package the crostini tools step installs by name.
func (c *Config) ToolPackages() []string {
	return slices.Concat(c.Packages.GuestTools, c.Packages.Extra)
}
