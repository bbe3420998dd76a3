package sequencer

// Registry is the ordered collection of steps built at startup.
// Registration order is execution order; names are labels only and may repeat.
type Registry struct {
	steps []Step
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{steps: make([]Step, 0)}
}

// Register appends a step.
func (r *Registry) Register(step Step) {
	r.steps = append(r.steps, step)
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// Steps returns a copy of the registered steps in order.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// InPhase returns the steps tagged with phase, preserving relative order.
func (r *Registry) InPhase(phase Phase) []Step {
	out := make([]Step, 0, len(r.steps))
	for _, s := range r.steps {
		if s.Phase == phase {
			out = append(out, s)
		}
	}
	return out
}
