package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crostini-setup/internal/adapters/prompt"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/crostini"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/history"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which steps are applied, without changing anything",
	Long: `Inspect the container and print the detected state of every step in both
phases, followed by the last recorded run. Does not require root, although
some checks may read files only root can see.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStatus(cmd.Context(), newEnvironment(cmd), cfgFile)
	},
}

// runStatus surveys every detector and prints the result.
func runStatus(ctx context.Context, env *environment, configPath string) error {
	cfg, err := loadConfig(env, configPath)
	if err != nil {
		return err
	}

	account, err := crostini.ResolveAccount(env.getenv, env.lookupUser)
	if err != nil {
		return err
	}

	ctx = ports.ContextWithLogger(ctx, env.logger)
	installer := crostini.New(cfg, account, crostini.Deps{
		Runner:   env.runner,
		FS:       env.fs,
		Prompter: prompt.DefaultsPrompter{},
		Fetcher:  env.newFetcher(cfg.Archive.Keyserver),
	})

	reporter := tui.NewReporter(env.stdout, tui.WithWidth(env.width))
	entries := sequencer.New(installer.NewRegistry(), prompt.DefaultsPrompter{}).Survey(ctx)
	reporter.Status(entries)

	last, ok, err := history.New(env.fs, cfg.Paths.History).Last()
	switch {
	case err != nil:
		env.logger.Debug(ctx, "could not read run history", ports.Err(err))
	case !ok:
		_, _ = fmt.Fprintln(env.stdout, "No recorded runs.")
	default:
		_, _ = fmt.Fprintf(env.stdout, "Last run: %s, %s phase, %s (%s)\n",
			last.FinishedAt.Local().Format(time.DateTime), last.Phase, last.Outcome, last.RunID)
		for _, s := range last.Steps {
			if s.Status == string(sequencer.StatusFailed) {
				_, _ = fmt.Fprintf(env.stdout, "  failed: %s: %s\n", s.Name, s.Error)
			}
		}
	}
	return nil
}
