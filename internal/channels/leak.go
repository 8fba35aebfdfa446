package channels

// Leak is a passive membrane conductance with a fixed reversal
// potential. It carries no state, so AdvanceState is a no-op.
type Leak struct{}

func NewLeak() Leak { return Leak{} }

func (Leak) Name() string { return "Leak" }

func (Leak) StateNames() []string { return nil }

func (Leak) DefaultParams() map[string]float64 {
	return map[string]float64{
		"Leak_g": 0.3,
		"Leak_e": -70.0,
	}
}

func (Leak) InitState(v float64) map[string]float64 { return nil }

func (Leak) AdvanceState(states States, voltages []float64, params Params, dt float64) {}

func (Leak) LinearizeCurrent(states States, voltages []float64, params Params, vTerms, constTerms []float64) {
	g, e := params["Leak_g"], params["Leak_e"]
	for i := range voltages {
		vTerms[i] += g[i]
		constTerms[i] += g[i] * e[i]
	}
}
