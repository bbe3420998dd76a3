package sequencer

import (
	"context"
	"time"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// Prompts shown by the sequencer.
const (
	PromptProceed  = "Proceed?"
	PromptContinue = "Continue anyway?"
)

// Sequencer runs the first unfinished phase of a step set.
type Sequencer struct {
	steps       []Step
	planner     *Planner
	prompter    ports.Prompter
	reporter    Reporter
	autoConfirm bool
	dryRun      bool
	now         func() time.Time
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithReporter sets the progress observer (default: NopReporter).
func WithReporter(r Reporter) Option {
	return func(s *Sequencer) {
		s.reporter = r
	}
}

// WithAutoConfirm answers the proceed prompt with yes and the
// continue-after-failure prompt with no, without asking.
func WithAutoConfirm(enabled bool) Option {
	return func(s *Sequencer) {
		s.autoConfirm = enabled
	}
}

// WithDryRun stops every run after the plan is reported.
func WithDryRun(enabled bool) Option {
	return func(s *Sequencer) {
		s.dryRun = enabled
	}
}

// New creates a Sequencer over a snapshot of the registry. Steps registered
// afterwards are not seen by this Sequencer.
func New(registry *Registry, prompter ports.Prompter, opts ...Option) *Sequencer {
	s := &Sequencer{
		steps:    registry.Steps(),
		planner:  NewPlanner(),
		prompter: prompter,
		reporter: NopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan detects the current system state without running anything.
func (s *Sequencer) Plan(ctx context.Context) *Plan {
	return s.planner.Plan(ctx, s.steps)
}

// Survey detects every step of both phases.
func (s *Sequencer) Survey(ctx context.Context) []Entry {
	return s.planner.Survey(ctx, s.steps)
}

// Run detects, asks for confirmation, and applies the pending steps of the
// selected phase in registration order. A returned error means the run could
// not talk to the operator or was canceled; step failures are reported in
// the Report instead.
func (s *Sequencer) Run(ctx context.Context) (*Report, error) {
	lc, err := newLifecycle()
	if err != nil {
		return nil, err
	}
	defer lc.stop()

	logger := ports.ContextLogger(ctx)

	plan := s.planner.Plan(ctx, s.steps)
	report := &Report{Plan: plan, Results: make([]StepResult, 0)}

	if plan.Complete() {
		lc.send(eventNothingPending)
		return s.finish(ctx, lc, report), nil
	}

	lc.send(eventPlanned)
	logger.Info(ctx, "phase selected",
		ports.F("phase", plan.Phase().String()),
		ports.F("pending", len(plan.Pending())),
	)
	s.reporter.PlanReady(ctx, plan)

	if s.dryRun {
		lc.send(eventDryRun)
		return s.finish(ctx, lc, report), nil
	}

	proceed, err := s.confirm(ctx, PromptProceed, true)
	if err != nil {
		return report, err
	}
	if !proceed {
		lc.send(eventDeclined)
		return s.finish(ctx, lc, report), nil
	}
	lc.send(eventConfirmed)

	pending := plan.Pending()
	for i, entry := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := s.apply(ctx, i+1, len(pending), entry)
		report.Results = append(report.Results, result)
		if result.Status != StatusFailed {
			continue
		}

		cont, err := s.confirm(ctx, PromptContinue, false)
		if err != nil {
			return report, err
		}
		if !cont {
			for _, rest := range pending[i+1:] {
				report.Results = append(report.Results, StepResult{
					Index:  rest.Index,
					Name:   rest.Step.Name,
					Status: StatusSkipped,
				})
			}
			lc.send(eventHalt)
			return s.finish(ctx, lc, report), nil
		}
	}

	lc.send(eventDrained)
	return s.finish(ctx, lc, report), nil
}

func (s *Sequencer) apply(ctx context.Context, position, total int, entry Entry) StepResult {
	logger := ports.ContextLogger(ctx).With(ports.F("step", entry.Step.Name))
	s.reporter.StepStarted(ctx, position, total, entry.Step)

	start := s.now()
	err := entry.Step.apply(ctx)
	result := StepResult{
		Index:    entry.Index,
		Name:     entry.Step.Name,
		Status:   StatusCompleted,
		Duration: s.now().Sub(start),
	}

	if err != nil {
		result.Status = StatusFailed
		result.Err = &StepError{Step: entry.Step.Name, Index: entry.Index, Err: err}
		logger.Error(ctx, "step failed", ports.Err(err))
	} else {
		logger.Info(ctx, "step completed", ports.F("duration", result.Duration.Round(time.Millisecond).String()))
	}

	s.reporter.StepFinished(ctx, result)
	return result
}

// confirm asks the operator, or answers automatically in auto-confirm mode.
func (s *Sequencer) confirm(ctx context.Context, question string, autoAnswer bool) (bool, error) {
	if s.autoConfirm {
		return autoAnswer, nil
	}
	return s.prompter.Confirm(ctx, question)
}

func (s *Sequencer) finish(ctx context.Context, lc *lifecycle, report *Report) *Report {
	report.Outcome = lc.outcome(report.Plan.Phase())
	ports.ContextLogger(ctx).Info(ctx, "run finished", ports.F("outcome", string(report.Outcome)))
	s.reporter.Finished(ctx, report)
	return report
}
