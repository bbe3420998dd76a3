package crostini_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/crostini"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/debpkg"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/testutil"
	"github.com/felixgeelhaar/crostini-setup/internal/testutil/mocks"
)

const (
	operator     = "alice"
	operatorHome = "/home/alice"
	groupsFile   = operatorHome + "/update-groups"
	sudoersRule  = "ubuntu ALL=(ALL) NOPASSWD:ALL\n"
	gtkSettings  = "/etc/gtk-3.0/settings.ini"
)

var (
	keysOnce sync.Once
	testKeys map[string][]byte
	keyIDs   []string
)

// signingKeys generates three throwaway keys: two archive keys and the repo key.
func signingKeys(t *testing.T) ([]string, map[string][]byte) {
	t.Helper()
	keysOnce.Do(func() {
		testKeys = make(map[string][]byte)
		for n := 0; n < 3; n++ {
			e, err := testutil.NewSigningKey(fmt.Sprintf("Key %d", n), fmt.Sprintf("key%d@example.com", n))
			if err != nil {
				panic(err)
			}
			id := e.PrimaryKey.KeyIdString()
			keyIDs = append(keyIDs, id)
			testKeys[id] = testutil.ArmoredKey(t, e)
		}
	})
	return keyIDs, testKeys
}

type keyserver struct {
	mu    sync.Mutex
	keys  map[string][]byte
	calls []string
}

func (k *keyserver) Fetch(_ context.Context, id string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls = append(k.calls, id)
	data, ok := k.keys[id]
	if !ok {
		return nil, fmt.Errorf("no key %s", id)
	}
	return data, nil
}

// uiConfigDeb builds a cros-ui-config package with GTK dialogs inhibited.
func uiConfigDeb(t *testing.T) []byte {
	t.Helper()
	return testutil.NewDebBuilder("cros-ui-config", "0.15").
		WithFile("./etc/gtk-3.0/settings.ini", string(testutil.LoadFixture(t, "settings.ini"))).
		WithMD5Sums().
		Build(t)
}

// container is a scripted fresh Ubuntu container.
type container struct {
	t        *testing.T
	cfg      *config.Config
	runner   *mocks.CommandRunner
	fs       *mocks.FileSystem
	prompter *mocks.Prompter
	keys     *keyserver
	inst     *crostini.Installer

	installed map[string]bool
}

func newContainer(t *testing.T) *container {
	t.Helper()
	ids, keys := signingKeys(t)

	cfg := config.Defaults()
	cfg.Archive.Keys = ids[:2]
	cfg.Repo.KeyID = ids[2]

	c := &container{
		t:        t,
		cfg:      cfg,
		runner:   mocks.NewCommandRunner(),
		fs:       mocks.NewFileSystem(),
		prompter: mocks.NewPrompter(),
		keys:     &keyserver{keys: keys},

		installed: make(map[string]bool),
	}

	c.fs.AddDir(operatorHome)
	c.fs.AddDir("/home/ubuntu")
	c.fs.AddFile(cfg.Paths.Sudoers, sudoersRule)
	c.fs.AddFile(cfg.Paths.Milestone, "120\n")

	c.runner.SetFallback("dpkg-query", ports.CommandResult{ExitCode: 1})
	c.runner.SetFallback("getent", ports.CommandResult{})
	c.runner.SetFallback("usermod", ports.CommandResult{})
	c.runner.SetFallback("killall", ports.CommandResult{ExitCode: 1})
	c.runner.SetFallback("hostnamectl", ports.CommandResult{})
	c.runner.AddResult("hostname", nil, ports.CommandResult{Stdout: "penguin\n"})
	c.runner.AddResult("id", []string{"-nG", "ubuntu"}, ports.CommandResult{Stdout: "ubuntu adm sudo video\n"})
	c.runner.AddResult("apt-get", []string{"update", "--fix-missing"}, ports.CommandResult{})
	c.runner.AddResult("apt-get", []string{"update"}, ports.CommandResult{})

	c.runner.AddResult("userdel", []string{"-r", "ubuntu"}, ports.CommandResult{})
	c.runner.OnRun("userdel", []string{"-r", "ubuntu"}, func() {
		_ = c.fs.Remove("/home/ubuntu")
	})

	deb := uiConfigDeb(t)
	c.runner.AddResult("apt-get", []string{"download", "cros-ui-config"}, ports.CommandResult{})
	c.runner.OnRun("apt-get", []string{"download", "cros-ui-config"}, func() {
		_ = c.fs.WriteFile(cfg.Paths.WorkDir+"/cros-ui-config_0.15_all.deb", deb, 0o644)
	})

	// apt keeps an installed cros-ui-config of the same version unless asked
	// to reinstall it.
	withFixed := []string{"install", "-y", "cros-guest-tools", cfg.FixedDebPath()}
	c.runner.AddResult("apt-get", withFixed, ports.CommandResult{})
	c.runner.OnRun("apt-get", withFixed, func() {
		if !c.installed["cros-ui-config"] {
			c.unpackFixed()
		}
		c.markInstalled("cros-guest-tools")
	})
	reinstall := []string{"install", "-y", "--reinstall", cfg.FixedDebPath()}
	c.runner.AddResult("apt-get", reinstall, ports.CommandResult{})
	c.runner.OnRun("apt-get", reinstall, c.unpackFixed)

	c.onInstall([]string{"adwaita-icon-theme-full"}, "adwaita-icon-theme-full")
	c.onInstall(cfg.Packages.Common, cfg.Packages.Common...)

	c.runner.OnRun("hostnamectl", []string{"set-hostname", "crostini"}, func() {
		c.runner.AddResult("hostname", nil, ports.CommandResult{Stdout: "crostini\n"})
	})

	c.inst = crostini.New(cfg, crostini.Account{Name: operator, Home: operatorHome}, crostini.Deps{
		Runner:   c.runner,
		FS:       c.fs,
		Prompter: c.prompter,
		Fetcher:  c.keys,
	})
	return c
}

// onInstall makes an apt-get install of targets mark pkgs as installed.
func (c *container) onInstall(targets []string, pkgs ...string) {
	args := append([]string{"install", "-y"}, targets...)
	c.runner.AddResult("apt-get", args, ports.CommandResult{})
	c.runner.OnRun("apt-get", args, func() {
		for _, p := range pkgs {
			c.markInstalled(p)
		}
	})
}

// installStock makes installing the guest tools alone pull in the stock
// cros-ui-config with dialogs still inhibited.
func (c *container) installStock() {
	args := []string{"install", "-y", "cros-guest-tools"}
	c.runner.AddResult("apt-get", args, ports.CommandResult{})
	c.runner.OnRun("apt-get", args, func() {
		c.fs.AddFile(gtkSettings, string(testutil.LoadFixture(c.t, "settings.ini")))
		c.markInstalled("cros-guest-tools")
		c.markInstalled("cros-ui-config")
	})
}

// unpackFixed installs the settings file carried by the fixed package.
func (c *container) unpackFixed() {
	data, err := c.fs.ReadFile(c.cfg.FixedDebPath())
	if err != nil {
		return
	}
	pkg, err := debpkg.Open(data)
	if err != nil {
		return
	}
	settings, err := pkg.ReadEntry(c.cfg.UIConfig.SettingsPath)
	if err != nil {
		return
	}
	c.fs.AddFile(gtkSettings, string(settings))
	c.markInstalled("cros-ui-config")
}

func (c *container) markInstalled(pkg string) {
	c.installed[pkg] = true
	c.runner.AddResult("dpkg-query", []string{"-W", "-f=${db:Status-Status}", pkg}, ports.CommandResult{Stdout: "installed"})
}

func (c *container) step(name string) sequencer.Step {
	c.t.Helper()
	for _, s := range c.inst.Steps() {
		if s.Name == name {
			return s
		}
	}
	c.t.Fatalf("no step %q", name)
	return sequencer.Step{}
}
