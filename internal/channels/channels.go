// Package channels defines the pluggable kinetics interface of the
// simulator and the built-in channel and synapse models.
//
// A kinetics model exposes two pure operations: AdvanceState, an
// exponential-Euler update of its gating variables, and
// LinearizeCurrent, a first-order approximation of its membrane current
//
//	i ≈ vTerm*v - constTerm
//
// evaluated at the already-advanced state and the pre-step voltage.
// vTerm accumulates on the diagonal of the implicit solve and constTerm
// on its right-hand side; contributions from multiple models on the same
// compartment add. Both operations work on batched per-member arrays
// rather than per-compartment virtual calls, and must be deterministic:
// identical inputs produce bit-identical outputs.
package channels

// Params maps parameter names to per-member value arrays. Parameter
// arrays have one entry per member compartment (or synapse) of the group
// the model is inserted on.
type Params map[string][]float64

// States maps state names to per-member value arrays, gathered from the
// global state vector for the members of one kinetics group.
type States map[string][]float64

// Channel is a membrane ion-channel kinetics model. All slice arguments
// have one entry per member compartment.
type Channel interface {
	// Name is the unique model name; state keys are prefixed with it.
	Name() string

	// StateNames lists the model's state entries, fully prefixed.
	StateNames() []string

	// DefaultParams returns the scalar defaults broadcast to members at
	// insertion time.
	DefaultParams() map[string]float64

	// InitState returns the steady-state gating values at voltage v.
	InitState(v float64) map[string]float64

	// AdvanceState updates the gating arrays in place given the present
	// voltages and time step.
	AdvanceState(states States, voltages []float64, params Params, dt float64)

	// LinearizeCurrent accumulates the affine current terms into vTerms
	// and constTerms (+=), evaluated at states and voltages.
	LinearizeCurrent(states States, voltages []float64, params Params, vTerms, constTerms []float64)
}

// Synapse is a point-to-point synaptic kinetics model. State advances
// read the presynaptic voltage; current linearization targets the
// postsynaptic compartment only. Linearized terms are point-current
// terms (nA per mV and nA); the orchestrator converts them to density
// units of the postsynaptic compartment.
type Synapse interface {
	Name() string
	StateNames() []string
	DefaultParams() map[string]float64
	InitState() map[string]float64

	AdvanceState(states States, preVoltages []float64, params Params, dt float64)
	LinearizeCurrent(states States, postVoltages []float64, params Params, vTerms, constTerms []float64)
}
