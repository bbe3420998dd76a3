package crostini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// GroupsFilePath is where the default user's groups are saved across the reboot.
func (i *Installer) GroupsFilePath() string {
	return filepath.Join(i.account.Home, i.cfg.Users.GroupsFile)
}

func (i *Installer) groupsFileExists(context.Context) bool {
	return i.fs.Exists(i.GroupsFilePath())
}

// groupsCaptured also holds once the default user is gone: there is nothing
// left to capture, and the groups file is deleted again after the reboot.
func (i *Installer) groupsCaptured(ctx context.Context) bool {
	return i.groupsFileExists(ctx) || i.defaultUserRemoved(ctx)
}

func (i *Installer) groupsApplied(ctx context.Context) bool {
	return !i.groupsFileExists(ctx)
}

// captureGroups saves the default user's supplementary groups. When the user
// cannot be queried the configured fallback list is saved instead.
func (i *Installer) captureGroups(ctx context.Context) error {
	path := i.GroupsFilePath()
	if i.fs.Exists(path) {
		return nil
	}
	log := ports.ContextLogger(ctx)
	def := i.cfg.Users.Default

	var groups []string
	result, err := ports.RunChecked(ctx, i.runner, "id", "-nG", def)
	if err == nil {
		groups = cleanGroups(strings.Fields(result.Stdout), def)
	} else {
		log.Warn(ctx, "group lookup failed, using fallback list", ports.F("user", def), ports.Err(err))
	}
	if len(groups) == 0 {
		groups = cleanGroups(i.cfg.Users.FallbackGroups, def)
	}

	if err := i.fs.WriteFile(path, []byte(formatGroupsFile(groups)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info(ctx, "groups saved", ports.F("path", path), ports.F("groups", strings.Join(groups, ",")))
	return nil
}

func (i *Installer) defaultUserRemoved(context.Context) bool {
	if i.fs.Exists(i.cfg.DefaultUserHome()) {
		return false
	}
	data, err := i.fs.ReadFile(i.cfg.Paths.Sudoers)
	if err != nil {
		// An absent sudoers fragment is clean; an unreadable one is not.
		return errors.Is(err, os.ErrNotExist)
	}
	_, found := stripSudoers(string(data), i.cfg.Users.Default)
	return !found
}

// removeDefaultUser deletes the cloud-init account and its sudo rule. Process
// and account removal failures are tolerated so a partly removed user can be
// cleaned up by a re-run.
func (i *Installer) removeDefaultUser(ctx context.Context) error {
	def := i.cfg.Users.Default
	if i.account.Name == def {
		return fmt.Errorf("%w: %s", ErrRemovingInvokingUser, def)
	}
	log := ports.ContextLogger(ctx)

	if _, err := ports.RunChecked(ctx, i.runner, "killall", "-u", def); err != nil {
		log.Debug(ctx, "no processes killed", ports.F("user", def), ports.Err(err))
	}
	if _, err := ports.RunChecked(ctx, i.runner, "userdel", "-r", def); err != nil {
		log.Warn(ctx, "userdel failed", ports.F("user", def), ports.Err(err))
	}

	data, err := i.fs.ReadFile(i.cfg.Paths.Sudoers)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", i.cfg.Paths.Sudoers, err)
	}
	kept, found := stripSudoers(string(data), def)
	if !found {
		return nil
	}
	if err := i.fs.WriteFile(i.cfg.Paths.Sudoers, []byte(kept), 0o440); err != nil {
		return fmt.Errorf("write %s: %w", i.cfg.Paths.Sudoers, err)
	}
	log.Info(ctx, "sudo rule removed", ports.F("path", i.cfg.Paths.Sudoers), ports.F("user", def))
	return nil
}

// stripSudoers drops every rule whose first field is name.
func stripSudoers(content, name string) (string, bool) {
	var kept []string
	found := false
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n") + "\n", found
}

// applyGroups adds the operator to every saved group that still exists, then
// deletes the groups file.
func (i *Installer) applyGroups(ctx context.Context) error {
	path := i.GroupsFilePath()
	data, err := i.fs.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrGroupsFileMissing, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log := ports.ContextLogger(ctx)

	var groups []string
	for _, g := range parseGroupsFile(string(data)) {
		if _, err := ports.RunChecked(ctx, i.runner, "getent", "group", g); err != nil {
			log.Warn(ctx, "skipping group that no longer exists", ports.F("group", g))
			continue
		}
		groups = append(groups, g)
	}

	if len(groups) > 0 {
		if _, err := ports.RunChecked(ctx, i.runner, "usermod", "-aG", strings.Join(groups, ","), i.account.Name); err != nil {
			return err
		}
		log.Info(ctx, "groups restored", ports.F("user", i.account.Name), ports.F("groups", strings.Join(groups, ",")))
	}

	if err := i.fs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
