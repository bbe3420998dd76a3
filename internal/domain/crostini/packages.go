package crostini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/debpkg"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// uiConfigPatched is true while the patched package waits to be installed,
// and afterwards only if the installed settings carry the patched value. A
// stock cros-ui-config pulled in by the guest tools does not count.
func (i *Installer) uiConfigPatched(ctx context.Context) bool {
	return i.fs.Exists(i.cfg.FixedDebPath()) || i.settingsPatched(ctx)
}

func (i *Installer) settingsPatched(ctx context.Context) bool {
	ui := i.cfg.UIConfig
	if !i.apt.Installed(ctx, ui.Package) {
		return false
	}
	data, err := i.fs.ReadFile(i.cfg.InstalledSettingsPath())
	if err != nil {
		return false
	}
	value, ok := debpkg.INIValue(data, ui.Key)
	return ok && value == ui.Value
}

// patchUIConfig downloads cros-ui-config and rewrites its GTK settings so
// dialogs are no longer inhibited.
func (i *Installer) patchUIConfig(ctx context.Context) error {
	fixed := i.cfg.FixedDebPath()
	if i.fs.Exists(fixed) {
		return nil
	}
	ui := i.cfg.UIConfig

	original, err := i.apt.Download(ctx, i.cfg.Paths.WorkDir, ui.Package)
	if err != nil {
		return err
	}
	data, err := i.fs.ReadFile(original)
	if err != nil {
		return fmt.Errorf("read %s: %w", original, err)
	}

	patched, err := debpkg.Rewrite(data, ui.SettingsPath, debpkg.PatchINIKey(ui.Key, ui.Value))
	if err != nil {
		return fmt.Errorf("patch %s: %w", original, err)
	}
	if err := i.fs.WriteFile(fixed, patched, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fixed, err)
	}
	if err := i.fs.Remove(original); err != nil {
		ports.ContextLogger(ctx).Debug(ctx, "leaving downloaded package", ports.F("path", original), ports.Err(err))
	}

	ports.ContextLogger(ctx).Info(ctx, "package patched",
		ports.F("path", fixed),
		ports.F("setting", ui.Key+"="+ui.Value),
	)
	return nil
}

// toolsInstalled stays false while a patched package waits to be installed.
func (i *Installer) toolsInstalled(ctx context.Context) bool {
	return !i.fs.Exists(i.cfg.FixedDebPath()) && i.apt.AllInstalled(ctx, i.cfg.ToolPackages()...)
}

// installTools installs the guest tools together with the patched
// cros-ui-config, then the extra packages, then drops the patched file. A
// stock cros-ui-config of the same version is replaced by a reinstall.
func (i *Installer) installTools(ctx context.Context) error {
	fixed := i.cfg.FixedDebPath()
	havePatch := i.fs.Exists(fixed)
	targets := append([]string(nil), i.cfg.Packages.GuestTools...)
	if havePatch {
		targets = append(targets, fixed)
	}
	if err := i.apt.Install(ctx, targets...); err != nil {
		return err
	}
	if havePatch && !i.settingsPatched(ctx) {
		if err := i.apt.Reinstall(ctx, fixed); err != nil {
			return err
		}
	}
	if len(i.cfg.Packages.Extra) > 0 {
		if err := i.apt.Install(ctx, i.cfg.Packages.Extra...); err != nil {
			return err
		}
	}
	if err := i.fs.Remove(fixed); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", fixed, err)
	}
	return nil
}

func (i *Installer) commonInstalled(ctx context.Context) bool {
	return i.apt.AllInstalled(ctx, i.cfg.Packages.Common...)
}

func (i *Installer) installCommon(ctx context.Context) error {
	if len(i.cfg.Packages.Common) == 0 {
		return nil
	}
	return i.apt.Install(ctx, i.cfg.Packages.Common...)
}
