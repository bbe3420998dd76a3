package crostini

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/aptsource"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

func (i *Installer) archiveKeysPresent(ctx context.Context) bool {
	return i.keys.Store().Has(ctx, i.cfg.Archive.Keys...)
}

// fixArchiveKeys imports every archive key, then refreshes the index. A
// failed refresh is tolerated; other repositories may still be broken.
func (i *Installer) fixArchiveKeys(ctx context.Context) error {
	log := ports.ContextLogger(ctx)

	var errs []error
	for _, id := range i.cfg.Archive.Keys {
		name := "ubuntu-archive-" + strings.ToLower(validation.NormalizeKeyID(id))
		if err := i.keys.Import(ctx, name, id); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info(ctx, "archive key trusted", ports.F("key", id))
	}

	if err := i.apt.Update(ctx, true); err != nil {
		log.Warn(ctx, "package index refresh failed", ports.Err(err))
	}
	return errors.Join(errs...)
}

func (i *Installer) crosRepoPresent(ctx context.Context) bool {
	data, err := i.fs.ReadFile(i.cfg.Paths.SourcesList)
	if err != nil {
		return false
	}
	referenced := false
	for _, e := range aptsource.ParseFile(string(data)) {
		if e.References(i.cfg.Repo.BaseURL) {
			referenced = true
			break
		}
	}
	return referenced && i.keys.Store().Has(ctx, i.cfg.Repo.KeyID)
}

// milestone reads the ChromeOS milestone the host exposes to the container.
func (i *Installer) milestone(ctx context.Context) string {
	data, err := i.fs.ReadFile(i.cfg.Paths.Milestone)
	if err == nil {
		m := strings.TrimSpace(string(data))
		if validation.ValidateSuite(m) == nil {
			return m
		}
	}
	ports.ContextLogger(ctx).Warn(ctx, "milestone unavailable, using fallback",
		ports.F("path", i.cfg.Paths.Milestone),
		ports.F("fallback", i.cfg.Repo.FallbackMilestone),
	)
	return i.cfg.Repo.FallbackMilestone
}

func (i *Installer) addCrosRepo(ctx context.Context) error {
	repo := i.cfg.Repo
	uri := strings.TrimSuffix(repo.BaseURL, "/") + "/" + i.milestone(ctx)
	line := aptsource.New(uri, repo.Suite, repo.Component).String() + "\n"

	if err := i.fs.MkdirAll(filepath.Dir(i.cfg.Paths.SourcesList), 0o755); err != nil {
		return fmt.Errorf("create sources dir: %w", err)
	}
	if err := i.fs.WriteFile(i.cfg.Paths.SourcesList, []byte(line), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", i.cfg.Paths.SourcesList, err)
	}
	ports.ContextLogger(ctx).Info(ctx, "repository written",
		ports.F("path", i.cfg.Paths.SourcesList),
		ports.F("line", strings.TrimSpace(line)),
	)

	if err := i.keys.Import(ctx, repo.KeyringName, repo.KeyID); err != nil {
		return err
	}
	return i.apt.Update(ctx, false)
}
