package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crostini-setup/internal/adapters/logging"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	yesFlag   bool
	dryRun    bool
	plainFlag bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "crostini-setup",
	Short: "Configure Ubuntu inside a ChromeOS Crostini container",
	Long: `crostini-setup turns a stock Ubuntu container on a Chromebook into a fully
integrated Crostini guest.

Work is split into two phases around a required reboot. Every invocation
inspects the system, lists the steps that are still missing, and applies
them after confirmation. Re-run the same command after rebooting.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if logFormat != "text" && logFormat != "json" {
			return fmt.Errorf("unsupported --log-format %q (want text or json)", logFormat)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSetup(cmd.Context(), newEnvironment(cmd), setupOptions{
			ConfigPath: cfgFile,
			Yes:        yesFlag,
			DryRun:     dryRun,
			Plain:      plainFlag,
		})
	},
}

// Execute runs the root command with a context canceled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: first of "+config.SearchPaths[0]+", .yml, .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show commands and debug logs")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "proceed without asking; stop at the first failure")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the pending steps and exit")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "use line prompts even on a terminal")

	registerFlagCompletions()

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// run executes the CLI and maps the result to a process exit code.
func run() int {
	err := Execute()
	if err == nil {
		return 0
	}
	printError(err)
	return exitCode(err)
}

// exitCode is 130 for an interrupted run and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

// newLogger builds the process logger from the global flags.
func newLogger(w io.Writer) ports.Logger {
	level := ports.LevelWarn
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(logFormat == "json"),
		logging.WithTimestamp(logFormat == "json"),
	)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	// Checked first: ErrorList unwraps to its UserErrors.
	var list *config.ErrorList
	if errors.As(err, &list) {
		return list.Format()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	if errors.Is(err, context.Canceled) {
		return "interrupted; re-run to resume from the detected state"
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman-readable key=value lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
