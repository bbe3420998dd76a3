package sequencer

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states of a single run.
const (
	statePlanning   = "planning"
	stateConfirming = "confirming"
	stateApplying   = "applying"
	stateSatisfied  = "satisfied"
	statePlanned    = "planned"
	stateAborted    = "aborted"
	stateHalted     = "halted"
	stateFinished   = "finished"
)

// Lifecycle events.
const (
	eventNothingPending = "NOTHING_PENDING"
	eventPlanned        = "PLANNED"
	eventDryRun         = "DRY_RUN"
	eventConfirmed      = "CONFIRMED"
	eventDeclined       = "DECLINED"
	eventHalt           = "HALT"
	eventDrained        = "DRAINED"
)

// lifecycleContext is the statekit context type. The run keeps its data in
// Report, so the machine only tracks where the run is.
type lifecycleContext struct{}

// lifecycle drives a run through planning, confirmation and application.
type lifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
}

func newLifecycle() (*lifecycle, error) {
	machine, err := statekit.NewMachine[lifecycleContext]("crostini-setup-run").
		WithInitial(statePlanning).
		WithContext(lifecycleContext{}).
		State(statePlanning).
		On(eventNothingPending).Target(stateSatisfied).
		On(eventPlanned).Target(stateConfirming).Done().
		State(stateConfirming).
		On(eventDryRun).Target(statePlanned).
		On(eventConfirmed).Target(stateApplying).
		On(eventDeclined).Target(stateAborted).Done().
		State(stateApplying).
		On(eventHalt).Target(stateHalted).
		On(eventDrained).Target(stateFinished).Done().
		State(stateSatisfied).Done().
		State(statePlanned).Done().
		State(stateAborted).Done().
		State(stateHalted).Done().
		State(stateFinished).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run lifecycle: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &lifecycle{interp: interp}, nil
}

func (l *lifecycle) send(event string) {
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (l *lifecycle) state() string {
	return string(l.interp.State().Value)
}

func (l *lifecycle) stop() {
	l.interp.Stop()
}

// outcome maps the terminal lifecycle state to a run outcome.
func (l *lifecycle) outcome(phase Phase) Outcome {
	switch l.state() {
	case stateSatisfied:
		return OutcomeAlreadyComplete
	case statePlanned:
		return OutcomePlanned
	case stateAborted:
		return OutcomeAborted
	case stateHalted:
		return OutcomeHalted
	case stateFinished:
		if phase == PhasePreReboot {
			return OutcomeRebootRequired
		}
		return OutcomeSetupComplete
	default:
		return Outcome(l.state())
	}
}
