// Package sequencer runs an ordered set of idempotent installer steps split
// across a reboot. Progress is never recorded: every invocation re-detects
// which steps are already applied and resumes from there.
package sequencer

import (
	"context"
	"fmt"
)

// Phase tags a step as belonging before or after the required reboot.
type Phase int

const (
	// PhasePreReboot steps run on a fresh container.
	PhasePreReboot Phase = iota
	// PhasePostReboot steps run once every pre-reboot step is detected.
	PhasePostReboot
)

// String returns the phase label used in output.
func (p Phase) String() string {
	switch p {
	case PhasePreReboot:
		return "pre-reboot"
	case PhasePostReboot:
		return "post-reboot"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Detector inspects the system and reports whether a step is already applied.
// Detectors must not change system state. A detector that cannot decide
// should report false so the step is offered again.
type Detector func(ctx context.Context) bool

// Action mutates the system to apply a step. Actions must be safe to re-run.
type Action func(ctx context.Context) error

// Step is one named unit of installer work.
type Step struct {
	Name        string
	Description string
	Phase       Phase
	Detect      Detector
	Apply       Action
}

// detect evaluates the detector; a step without one is never considered applied.
func (s Step) detect(ctx context.Context) bool {
	if s.Detect == nil {
		return false
	}
	return s.Detect(ctx)
}

// apply runs the action; a step without one applies as a no-op.
func (s Step) apply(ctx context.Context) error {
	if s.Apply == nil {
		return nil
	}
	return s.Apply(ctx)
}
