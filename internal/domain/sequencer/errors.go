package sequencer

import "fmt"

// StepError wraps the error returned by a step's action.
type StepError struct {
	Step  string
	Index int
	Err   error
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error for error chain support.
func (e *StepError) Unwrap() error {
	return e.Err
}
