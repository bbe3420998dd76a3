package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/crostini-setup/internal/adapters/prompt"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/crostini"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/history"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/tui"
)

// setupOptions are the flags of the root command.
type setupOptions struct {
	ConfigPath string
	Yes        bool
	DryRun     bool
	Plain      bool
}

// runSetup checks privileges, then detects and applies the current phase.
func runSetup(ctx context.Context, env *environment, opts setupOptions) error {
	if uid := env.geteuid(); uid != 0 {
		return config.NewNotRootError(uid)
	}

	cfg, err := loadConfig(env, opts.ConfigPath)
	if err != nil {
		return err
	}

	account, err := crostini.ResolveAccount(env.getenv, env.lookupUser)
	if err != nil {
		return err
	}

	runID := history.NewRunID()
	logger := env.logger.With(ports.F("run_id", runID))
	ctx = ports.ContextWithLogger(ctx, logger)

	reporter := tui.NewReporter(env.stdout, tui.WithWidth(env.width), tui.WithRerunCommand(env.rerun))
	reporter.Welcome(account.Name, env.geteuid())

	prompter := choosePrompter(env, opts)
	installer := crostini.New(cfg, account, crostini.Deps{
		Runner:   env.runner,
		FS:       env.fs,
		Prompter: prompter,
		Fetcher:  env.newFetcher(cfg.Archive.Keyserver),
	})

	journal := history.New(env.fs, cfg.Paths.History)
	seq := sequencer.New(installer.NewRegistry(), prompter,
		sequencer.WithReporter(&partialWarner{Reporter: reporter, failures: lastFailures(ctx, journal)}),
		sequencer.WithAutoConfirm(opts.Yes),
		sequencer.WithDryRun(opts.DryRun),
	)

	started := env.now()
	report, runErr := seq.Run(ctx)
	if report != nil && report.Outcome != "" && report.Outcome != sequencer.OutcomePlanned {
		rec := history.FromReport(runID, started, env.now(), report)
		if err := journal.Append(rec); err != nil {
			logger.Warn(ctx, "could not record run history", ports.F("path", journal.Path()), ports.Err(err))
		}
	}
	return runErr
}

// loadConfig loads the given file, or the first search path that exists,
// or the built-in defaults.
func loadConfig(env *environment, path string) (*config.Config, error) {
	if path == "" {
		path = config.Locate(env.fs.Exists)
	}
	return config.Load(path)
}

// choosePrompter picks Bubble Tea widgets on a terminal, line prompts
// otherwise, and fixed answers for --yes.
func choosePrompter(env *environment, opts setupOptions) ports.Prompter {
	switch {
	case opts.Yes:
		return prompt.DefaultsPrompter{}
	case env.terminal && !opts.Plain:
		return tui.NewPrompter(env.stdin, env.stdout, env.width)
	default:
		return prompt.NewLinePrompter(env.stdin, env.stdout)
	}
}

// lastFailures returns the steps that failed in the previous run, or nothing
// when the history cannot be read.
func lastFailures(ctx context.Context, journal *history.Journal) []history.StepRecord {
	failures, err := journal.LastFailures()
	if err != nil {
		ports.ContextLogger(ctx).Debug(ctx, "could not read run history",
			ports.F("path", journal.Path()), ports.Err(err))
		return nil
	}
	return failures
}

// partialWarner flags steps that failed last run but are now detected as
// applied, using the detection the sequencer made for its plan. Detection
// stays authoritative; the warning only asks the operator to check.
type partialWarner struct {
	*tui.Reporter
	failures []history.StepRecord
	warned   bool
}

// PlanReady warns before the checklist is shown.
func (w *partialWarner) PlanReady(ctx context.Context, plan *sequencer.Plan) {
	w.warn(plan)
	w.Reporter.PlanReady(ctx, plan)
}

// Finished warns for runs that found nothing pending and never planned.
func (w *partialWarner) Finished(ctx context.Context, report *sequencer.Report) {
	w.warn(report.Plan)
	w.Reporter.Finished(ctx, report)
}

func (w *partialWarner) warn(plan *sequencer.Plan) {
	if w.warned || plan == nil || len(w.failures) == 0 {
		return
	}
	w.warned = true

	suspects := history.SuspectPartial(w.failures, plan.Detected())
	if len(suspects) == 0 {
		return
	}
	w.Reporter.Warn(fmt.Sprintf("failed last run but now detected as applied, verify manually: %s",
		strings.Join(suspects, ", ")))
}
