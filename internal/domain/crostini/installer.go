// Package crostini defines the steps that turn a stock Ubuntu container into
// one integrated with ChromeOS: signing keys, the cros-packages repository,
// guest tools, the cloud-init default user and group memberships.
package crostini

import (
	"errors"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/keyring"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/provider/apt"
)

// Step names, in registration order.
const (
	StepFixKeys           = "Fix GPG Keys"
	StepCaptureGroups     = "Capture Default Groups"
	StepRemoveDefaultUser = "Remove Default ubuntu User"
	StepAddRepo           = "Add Crostini Package Repo"
	StepPatchUIConfig     = "Patch cros-ui-config"
	StepInstallTools      = "Install Crostini Tools"
	StepInstallCommon     = "Install Common Tools"
	StepApplyGroups       = "Apply User Groups"
	StepSetHostname       = "Set Hostname"
)

// Errors returned by step actions.
var (
	// ErrPackageNotDownloaded means apt-get download produced no package file.
	ErrPackageNotDownloaded = apt.ErrNotDownloaded
	// ErrGroupsFileMissing means the post-reboot phase ran without the
	// groups file the pre-reboot phase saves.
	ErrGroupsFileMissing = errors.New("groups file missing: run the pre-reboot phase first")
	// ErrRemovingInvokingUser means the default account is the one running
	// the installer and cannot be deleted from its own session.
	ErrRemovingInvokingUser = errors.New("refusing to remove the account running the installer")
)

// Deps are the system adapters the steps act through.
type Deps struct {
	Runner   ports.CommandRunner
	FS       ports.FileSystem
	Prompter ports.Prompter
	Fetcher  keyring.Fetcher
}

// Installer owns the Crostini steps and the state they share.
type Installer struct {
	cfg      *config.Config
	account  Account
	runner   ports.CommandRunner
	fs       ports.FileSystem
	prompter ports.Prompter
	apt      *apt.Client
	keys     *keyring.Importer
}

// New creates an Installer acting on behalf of account.
func New(cfg *config.Config, account Account, deps Deps) *Installer {
	store := keyring.NewStore(deps.FS, cfg.Paths.TrustedKeyring, cfg.Paths.TrustedDir)
	return &Installer{
		cfg:      cfg,
		account:  account,
		runner:   deps.Runner,
		fs:       deps.FS,
		prompter: deps.Prompter,
		apt:      apt.NewClient(deps.Runner, deps.FS),
		keys:     keyring.NewImporter(store, deps.Fetcher),
	}
}

// Steps returns the installer steps in execution order.
func (i *Installer) Steps() []sequencer.Step {
	return []sequencer.Step{
		{
			Name:        StepFixKeys,
			Description: "Import missing Ubuntu archive keys",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.archiveKeysPresent,
			Apply:       i.fixArchiveKeys,
		},
		{
			Name:        StepCaptureGroups,
			Description: "Save groups of the default '" + i.cfg.Users.Default + "' user",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.groupsCaptured,
			Apply:       i.captureGroups,
		},
		{
			Name:        StepRemoveDefaultUser,
			Description: "Delete cloud-init user & sudo entry",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.defaultUserRemoved,
			Apply:       i.removeDefaultUser,
		},
		{
			Name:        StepAddRepo,
			Description: "Enable cros-packages repository",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.crosRepoPresent,
			Apply:       i.addCrosRepo,
		},
		{
			Name:        StepPatchUIConfig,
			Description: "Disable GTK dialog inhibition",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.uiConfigPatched,
			Apply:       i.patchUIConfig,
		},
		{
			Name:        StepInstallTools,
			Description: "cros-guest-tools + icon theme",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.toolsInstalled,
			Apply:       i.installTools,
		},
		{
			Name:        StepInstallCommon,
			Description: "curl, git, vim, etc.",
			Phase:       sequencer.PhasePreReboot,
			Detect:      i.commonInstalled,
			Apply:       i.installCommon,
		},
		{
			Name:        StepApplyGroups,
			Description: "Restore groups to your account",
			Phase:       sequencer.PhasePostReboot,
			Detect:      i.groupsApplied,
			Apply:       i.applyGroups,
		},
		{
			Name:        StepSetHostname,
			Description: "Optional hostname change",
			Phase:       sequencer.PhasePostReboot,
			Detect:      i.hostnameSet,
			Apply:       i.setHostname,
		},
	}
}

// Register appends every step to reg.
func (i *Installer) Register(reg *sequencer.Registry) {
	for _, s := range i.Steps() {
		reg.Register(s)
	}
}

// NewRegistry returns a registry holding the installer steps.
func (i *Installer) NewRegistry() *sequencer.Registry {
	reg := sequencer.NewRegistry()
	i.Register(reg)
	return reg
}
