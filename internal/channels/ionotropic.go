package channels

import "math"

// Ionotropic is a conductance-based synapse with sigmoidal transmitter
// release: the gating variable s relaxes toward a sigmoid of the
// presynaptic voltage with a fixed time constant, and the postsynaptic
// current is gS*s*(vPost - eSyn) in nA (gS in µS).
type Ionotropic struct{}

func NewIonotropic() Ionotropic { return Ionotropic{} }

func (Ionotropic) Name() string { return "Ionotropic" }

func (Ionotropic) StateNames() []string { return []string{"Ionotropic_s"} }

func (Ionotropic) DefaultParams() map[string]float64 {
	return map[string]float64{
		"Ionotropic_gS":    1e-4,  // µS
		"Ionotropic_eSyn":  0.0,   // mV
		"Ionotropic_tau":   1.0,   // ms
		"Ionotropic_vTh":   -35.0, // mV, release threshold midpoint
		"Ionotropic_delta": 10.0,  // mV, release slope
	}
}

func (Ionotropic) InitState() map[string]float64 {
	return map[string]float64{"Ionotropic_s": 0.0}
}

func (Ionotropic) AdvanceState(states States, preVoltages []float64, params Params, dt float64) {
	s := states["Ionotropic_s"]
	tau := params["Ionotropic_tau"]
	vTh := params["Ionotropic_vTh"]
	delta := params["Ionotropic_delta"]
	for i, vPre := range preVoltages {
		sInf := 1 / (1 + math.Exp((vTh[i]-vPre)/delta[i]))
		s[i] = sInf + (s[i]-sInf)*math.Exp(-dt/tau[i])
	}
}

func (Ionotropic) LinearizeCurrent(states States, postVoltages []float64, params Params, vTerms, constTerms []float64) {
	s := states["Ionotropic_s"]
	gS := params["Ionotropic_gS"]
	eSyn := params["Ionotropic_eSyn"]
	for i := range postVoltages {
		g := gS[i] * s[i]
		vTerms[i] += g
		constTerms[i] += g * eSyn[i]
	}
}
