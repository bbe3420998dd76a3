package sequencer

import (
	"context"

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// Entry is a step together with its detected state at planning time.
type Entry struct {
	// Index is the step's position in the registry.
	Index int
	Step  Step
	Done  bool
}

// Plan is the detected state of the phase selected for this run.
type Plan struct {
	phase    Phase
	entries  []Entry
	detected []Entry
	complete bool
}

// Phase returns the selected phase: the first one with an unapplied step, or
// post-reboot when everything is applied.
func (p *Plan) Phase() Phase {
	return p.phase
}

// Complete reports whether every step of both phases is detected as applied.
func (p *Plan) Complete() bool {
	return p.complete
}

// Entries returns every step of the selected phase with its detected state.
func (p *Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Detected returns every entry whose detector ran while planning: the
// pre-reboot steps, followed by the post-reboot steps when they were reached.
func (p *Plan) Detected() []Entry {
	out := make([]Entry, len(p.detected))
	copy(out, p.detected)
	return out
}

// Pending returns the entries whose detector reported false, in registration order.
func (p *Plan) Pending() []Entry {
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.Done {
			out = append(out, e)
		}
	}
	return out
}

// PendingNames returns the names of the pending steps.
func (p *Plan) PendingNames() []string {
	pending := p.Pending()
	names := make([]string, len(pending))
	for i, e := range pending {
		names[i] = e.Step.Name
	}
	return names
}

// Planner evaluates detectors and selects the phase to run.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan evaluates the pre-reboot detectors and, only when all of them report
// applied, the post-reboot detectors. Each detector runs once.
func (p *Planner) Plan(ctx context.Context, steps []Step) *Plan {
	pre := p.detect(ctx, steps, PhasePreReboot)
	if !allDone(pre) {
		return &Plan{phase: PhasePreReboot, entries: pre, detected: pre}
	}

	post := p.detect(ctx, steps, PhasePostReboot)
	return &Plan{
		phase:    PhasePostReboot,
		entries:  post,
		detected: append(append([]Entry(nil), pre...), post...),
		complete: allDone(post),
	}
}

// Survey evaluates every detector regardless of phase, for status reports.
func (p *Planner) Survey(ctx context.Context, steps []Step) []Entry {
	entries := make([]Entry, 0, len(steps))
	entries = append(entries, p.detect(ctx, steps, PhasePreReboot)...)
	entries = append(entries, p.detect(ctx, steps, PhasePostReboot)...)
	return entries
}

func (p *Planner) detect(ctx context.Context, steps []Step, phase Phase) []Entry {
	logger := ports.ContextLogger(ctx)
	entries := make([]Entry, 0, len(steps))
	for i, s := range steps {
		if s.Phase != phase {
			continue
		}
		done := s.detect(ctx)
		logger.Debug(ctx, "detected step state",
			ports.F("step", s.Name),
			ports.F("phase", phase.String()),
			ports.F("applied", done),
		)
		entries = append(entries, Entry{Index: i, Step: s, Done: done})
	}
	return entries
}

func allDone(entries []Entry) bool {
	for _, e := range entries {
		if !e.Done {
			return false
		}
	}
	return true
}
