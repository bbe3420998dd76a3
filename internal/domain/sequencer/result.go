package sequencer

import "time"

// StepStatus is the outcome of one pending step in a run.
type StepStatus string

const (
	// StatusCompleted means the action returned without error.
	StatusCompleted StepStatus = "completed"
	// StatusFailed means the action returned an error.
	StatusFailed StepStatus = "failed"
	// StatusSkipped means the run halted before the step was reached.
	StatusSkipped StepStatus = "skipped"
)

// StepResult captures what happened to one pending step.
type StepResult struct {
	Index    int
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Outcome summarizes how a run ended. Every outcome is a normal exit.
type Outcome string

const (
	// OutcomeAlreadyComplete means every step of both phases was detected as applied.
	OutcomeAlreadyComplete Outcome = "already-complete"
	// OutcomePlanned means a dry run stopped after showing the plan.
	OutcomePlanned Outcome = "planned"
	// OutcomeAborted means the operator declined to proceed; nothing ran.
	OutcomeAborted Outcome = "aborted"
	// OutcomeHalted means the operator stopped after a failed step.
	OutcomeHalted Outcome = "halted"
	// OutcomeRebootRequired means the pre-reboot phase finished.
	OutcomeRebootRequired Outcome = "reboot-required"
	// OutcomeSetupComplete means the post-reboot phase finished.
	OutcomeSetupComplete Outcome = "setup-complete"
)

// Report describes one sequencer run.
type Report struct {
	Outcome Outcome
	Plan    *Plan
	Results []StepResult
}

// Failed returns the results of steps whose action failed.
func (r *Report) Failed() []StepResult {
	out := make([]StepResult, 0)
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Executed returns the names of steps whose action was invoked, in order.
func (r *Report) Executed() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Status != StatusSkipped {
			out = append(out, res.Name)
		}
	}
	return out
}
