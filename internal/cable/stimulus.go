package cable

// Stimulus describes externally injected currents: for each stimulated
// compartment, a time-indexed trace of current values (nA). Compartments
// keep their insertion order, so repeated playback is deterministic.
type Stimulus struct {
	comps  []int
	traces [][]float64
}

func NewStimulus() *Stimulus {
	return &Stimulus{}
}

// Add registers an injected-current trace for a global compartment index.
// Multiple traces on the same compartment accumulate additively.
func (s *Stimulus) Add(comp int, trace []float64) *Stimulus {
	s.comps = append(s.comps, comp)
	s.traces = append(s.traces, trace)
	return s
}

// StepCurrent builds a constant-amplitude pulse spanning [start, stop)
// steps within a trace of length steps.
func StepCurrent(amplitude float64, start, stop, steps int) []float64 {
	trace := make([]float64, steps)
	for i := start; i < stop && i < steps; i++ {
		trace[i] = amplitude
	}
	return trace
}

// At returns the injected current per compartment at the given step.
// Traces shorter than the step contribute zero.
func (s *Stimulus) At(step int) map[int]float64 {
	if s == nil || len(s.comps) == 0 {
		return nil
	}
	inj := make(map[int]float64, len(s.comps))
	for i, comp := range s.comps {
		if step >= 0 && step < len(s.traces[i]) {
			inj[comp] += s.traces[i][step]
		}
	}
	return inj
}

// Comps returns the stimulated compartment indices in insertion order.
func (s *Stimulus) Comps() []int {
	return s.comps
}

// Len returns the longest trace length.
func (s *Stimulus) Len() int {
	n := 0
	for _, t := range s.traces {
		if len(t) > n {
			n = len(t)
		}
	}
	return n
}
