package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// Validate checks every value that ends up in a command line or system file.
// All problems are collected into one ErrorList.
func (c *Config) Validate() error {
	errs := NewErrorList()

	for i, k := range c.Archive.Keys {
		check(errs, fmt.Sprintf("archive.keys[%d]", i), validation.ValidateKeyID(k))
	}
	check(errs, "archive.keyserver", validation.ValidateURL(c.Archive.Keyserver))

	check(errs, "repo.base_url", validation.ValidateURL(c.Repo.BaseURL))
	check(errs, "repo.suite", validation.ValidateSuite(c.Repo.Suite))
	check(errs, "repo.component", validation.ValidateSuite(c.Repo.Component))
	check(errs, "repo.fallback_milestone", validation.ValidateSuite(c.Repo.FallbackMilestone))
	check(errs, "repo.key_id", validation.ValidateKeyID(c.Repo.KeyID))
	check(errs, "repo.keyring_name", validation.ValidateSuite(c.Repo.KeyringName))

	check(errs, "users.default", validation.ValidateUserName(c.Users.Default))
	for i, g := range c.Users.FallbackGroups {
		check(errs, fmt.Sprintf("users.fallback_groups[%d]", i), validation.ValidateGroupName(g))
	}
	check(errs, "users.groups_file", fileName(c.Users.GroupsFile))

	check(errs, "ui_config.package", validation.ValidatePackageName(c.UIConfig.Package))
	check(errs, "ui_config.settings_path", nonEmpty(c.UIConfig.SettingsPath))
	check(errs, "ui_config.key", nonEmpty(c.UIConfig.Key))
	check(errs, "ui_config.fixed_deb", fileName(c.UIConfig.FixedDeb))

	lists := []struct {
		field string
		names []string
	}{
		{"packages.guest_tools", c.Packages.GuestTools},
		{"packages.extra", c.Packages.Extra},
		{"packages.common", c.Packages.Common},
	}
	for _, l := range lists {
		for i, name := range l.names {
			check(errs, fmt.Sprintf("%s[%d]", l.field, i), validation.ValidatePackageName(name))
		}
	}
	if len(c.Packages.GuestTools) == 0 {
		check(errs, "packages.guest_tools", validation.ErrEmptyInput)
	}

	check(errs, "hostname.default", validation.ValidateHostname(c.Hostname.Default))
	if c.Hostname.Desired != "" {
		check(errs, "hostname.desired", validation.ValidateHostname(c.Hostname.Desired))
	}
	check(errs, "hostname.container_default", validation.ValidateHostname(c.Hostname.ContainerDefault))

	paths := []struct{ field, path string }{
		{"paths.work_dir", c.Paths.WorkDir},
		{"paths.history", c.Paths.History},
		{"paths.sources_list", c.Paths.SourcesList},
		{"paths.sudoers", c.Paths.Sudoers},
		{"paths.trusted_dir", c.Paths.TrustedDir},
		{"paths.trusted_keyring", c.Paths.TrustedKeyring},
		{"paths.milestone", c.Paths.Milestone},
		{"paths.home_root", c.Paths.HomeRoot},
	}
	for _, p := range paths {
		check(errs, p.field, absolute(p.path))
	}

	return errs.AsError()
}

func check(errs *ErrorList, field string, err error) {
	if err != nil {
		errs.AddValidation(field, err)
	}
}

var errNotAbsolute = errors.New("path must be absolute")

func absolute(p string) error {
	if p == "" {
		return validation.ErrEmptyInput
	}
	if !filepath.IsAbs(p) {
		return fmt.Errorf("%w: %q", errNotAbsolute, p)
	}
	return nil
}

func fileName(name string) error {
	if name == "" {
		return validation.ErrEmptyInput
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%q must be a bare file name", name)
	}
	return nil
}

func nonEmpty(s string) error {
	if s == "" {
		return validation.ErrEmptyInput
	}
	return nil
}
