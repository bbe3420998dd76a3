package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/tui/ui"
)

// DefaultRerunCommand is shown in the reboot instructions.
const DefaultRerunCommand = "sudo crostini-setup"

// CompletionHints are printed under the final success banner.
var CompletionHints = []string{
	"Ubuntu is now fully integrated with Crostini.",
	"Test a GUI app:  firefox   or   code",
	"ChromeOS files are at:  /mnt/chromeos/MyFiles",
}

// Reporter prints the plan checklist, per-step progress and the closing
// banner. It implements sequencer.Reporter.
type Reporter struct {
	out    io.Writer
	width  int
	styles ui.Styles
	rerun  string
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithWidth sets the banner width (clamped to the supported range).
func WithWidth(width int) ReporterOption {
	return func(r *Reporter) {
		r.width = ui.ClampWidth(width)
	}
}

// WithRerunCommand sets the command shown after the pre-reboot phase.
func WithRerunCommand(cmd string) ReporterOption {
	return func(r *Reporter) {
		r.rerun = cmd
	}
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		out:   out,
		width: ui.DefaultWidth,
		rerun: DefaultRerunCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = ui.DefaultStyles().WithWidth(r.width)
	return r
}

// Banner prints a framed title.
func (r *Reporter) Banner(title string) {
	r.printf("\n%s\n\n", r.styles.Banner.Render(title))
}

// Welcome prints the opening banner and who the installer runs for.
func (r *Reporter) Welcome(user string, uid int) {
	r.Banner("Ubuntu Crostini Setup Wizard")
	r.printf("%s\n", r.styles.Muted.Render(fmt.Sprintf("User: %s   UID: %d", user, uid)))
}

// PlanReady lists every step of the selected phase with its detected state,
// then how many of them will run.
func (r *Reporter) PlanReady(_ context.Context, plan *sequencer.Plan) {
	phase := strings.ToUpper(plan.Phase().String())
	r.printf("\n%s\n", r.styles.Title.Render(phase+" STEPS:"))

	for i, e := range plan.Entries() {
		r.printf("  [%d] %s %s\n", i+1, r.stateTag(e.Done), e.Step.Name)
		if e.Step.Description != "" {
			r.printf("%s\n", indent(e.Step.Description, "      "))
		}
	}
	r.printf("\n%d of %d steps to execute.\n\n", len(plan.Pending()), len(plan.Entries()))
}

// StepStarted prints the step counter and description.
func (r *Reporter) StepStarted(_ context.Context, position, total int, step sequencer.Step) {
	r.printf("\n%s %s\n", r.styles.Title.Render(fmt.Sprintf("[%d/%d]", position, total)), step.Name)
	if step.Description != "" {
		r.printf("%s\n", indent(step.Description, "    "))
	}
}

// StepFinished prints the step's outcome tag.
func (r *Reporter) StepFinished(_ context.Context, result sequencer.StepResult) {
	switch result.Status {
	case sequencer.StatusCompleted:
		r.printf("   %s %s\n", r.styles.Completed.Render("[COMPLETED]"),
			r.styles.Muted.Render(result.Duration.Round(time.Millisecond).String()))
	case sequencer.StatusFailed:
		r.printf("   %s %v\n", r.styles.Failed.Render("[FAILED]"), result.Err)
	case sequencer.StatusSkipped:
		r.printf("   %s\n", r.styles.Skipped.Render("[SKIPPED]"))
	}
}

// Finished prints the closing message for the run's outcome.
func (r *Reporter) Finished(_ context.Context, report *sequencer.Report) {
	switch report.Outcome {
	case sequencer.OutcomeAlreadyComplete:
		r.printf("%s\n", r.styles.Completed.Render("All steps already completed!"))
		return
	case sequencer.OutcomePlanned:
		r.printf("%s\n", r.styles.Muted.Render("Dry run: nothing was changed."))
		return
	case sequencer.OutcomeAborted:
		r.printf("%s\n", r.styles.Warning.Render("Aborted by user."))
		return
	case sequencer.OutcomeHalted:
		r.printf("\n%s\n", r.styles.Warning.Render("Setup stopped."))
		r.rerunHint(report)
		return
	}

	if failed := report.Failed(); len(failed) > 0 {
		r.printf("\n%s\n", r.styles.Warning.Render(fmt.Sprintf(
			"%d step(s) failed and will be offered again on the next run.", len(failed))))
	}

	switch report.Outcome {
	case sequencer.OutcomeRebootRequired:
		r.printf("\n%s\n\n", r.styles.BannerWarning.Render("PRE-REBOOT PHASE FINISHED"))
		r.printf("Please REBOOT your Chromebook now.\n")
		r.printf("After reboot, open the Terminal and run:\n\n")
		r.printf("%s\n\n", r.styles.Command.Render(r.rerun))
	case sequencer.OutcomeSetupComplete:
		r.printf("\n%s\n\n", r.styles.BannerSuccess.Render("SETUP COMPLETE"))
		for _, hint := range CompletionHints {
			r.printf("%s\n", hint)
		}
	}
}

// Status prints the detected state of every step of both phases.
func (r *Reporter) Status(entries []sequencer.Entry) {
	var current sequencer.Phase = -1
	for _, e := range entries {
		if e.Step.Phase != current {
			current = e.Step.Phase
			r.printf("\n%s\n", r.styles.Title.Render(strings.ToUpper(current.String())))
		}
		r.printf("  %s %s\n", r.stateTag(e.Done), e.Step.Name)
	}
	r.printf("\n")
}

// Warn prints a highlighted warning line.
func (r *Reporter) Warn(msg string) {
	r.printf("%s\n", r.styles.Warning.Render("warning: "+msg))
}

func (r *Reporter) rerunHint(report *sequencer.Report) {
	if len(report.Failed()) == 0 {
		return
	}
	r.printf("Fix the problem above and run %s again to resume.\n",
		r.styles.Command.UnsetPaddingLeft().Render(r.rerun))
}

func (r *Reporter) stateTag(done bool) string {
	if done {
		return r.styles.Done.Render("[DONE]") + "   "
	}
	return r.styles.Pending.Render("[PENDING]")
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

var _ sequencer.Reporter = (*Reporter)(nil)
