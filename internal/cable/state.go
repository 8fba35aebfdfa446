package cable

import "math"

// VoltageKey names the mandatory membrane-voltage entry of a State.
const VoltageKey = "voltages"

// State is the global state vector of a simulation: a mapping from state
// name to an ordered array of values. The "voltages" entry is always
// present and holds one value per compartment, indexed by global
// compartment index. Channel-state entries have the same length; synapse
// state entries have one value per synapse.
type State map[string][]float64

func (s State) Clone() State {
	c := make(State, len(s))
	for k, v := range s {
		cv := make([]float64, len(v))
		copy(cv, v)
		c[k] = cv
	}
	return c
}

// Voltages returns the voltage entry, or nil if it is missing.
func (s State) Voltages() []float64 {
	return s[VoltageKey]
}

func (s State) IsValid() bool {
	for _, arr := range s {
		for _, v := range arr {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// SameShape reports whether two states carry the same entries with the
// same lengths. Used to detect shape drift between consecutive steps.
func (s State) SameShape(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || len(ov) != len(v) {
			return false
		}
	}
	return true
}
