package sequencer

import "context"

// Reporter observes a run. Implementations render progress for the operator.
type Reporter interface {
	// PlanReady is called once the phase is selected and before any prompt.
	PlanReady(ctx context.Context, plan *Plan)
	// StepStarted is called before a pending step's action runs.
	// position is 1-based within the pending list.
	StepStarted(ctx context.Context, position, total int, step Step)
	// StepFinished is called after the action returns.
	StepFinished(ctx context.Context, result StepResult)
	// Finished is called once with the final report.
	Finished(ctx context.Context, report *Report)
}

// NopReporter ignores every callback.
type NopReporter struct{}

// PlanReady does nothing.
func (NopReporter) PlanReady(context.Context, *Plan) {}

// StepStarted does nothing.
func (NopReporter) StepStarted(context.Context, int, int, Step) {}

// StepFinished does nothing.
func (NopReporter) StepFinished(context.Context, StepResult) {}

// Finished does nothing.
func (NopReporter) Finished(context.Context, *Report) {}

var _ Reporter = NopReporter{}
