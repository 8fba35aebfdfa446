package channels

import "math"

// HH is the classical Hodgkin-Huxley sodium/potassium/leak channel with
// m, h and n gating variables. Voltages are in mV, conductance densities
// in mS/cm², currents in µA/cm².
type HH struct{}

func NewHH() HH { return HH{} }

func (HH) Name() string { return "HH" }

func (HH) StateNames() []string { return []string{"HH_m", "HH_h", "HH_n"} }

func (HH) DefaultParams() map[string]float64 {
	return map[string]float64{
		"HH_gNa":   120.0,
		"HH_gK":    36.0,
		"HH_gLeak": 0.3,
		"HH_eNa":   50.0,
		"HH_eK":    -77.0,
		"HH_eLeak": -54.3,
	}
}

func (HH) InitState(v float64) map[string]float64 {
	am, bm := alphaM(v), betaM(v)
	ah, bh := alphaH(v), betaH(v)
	an, bn := alphaN(v), betaN(v)
	return map[string]float64{
		"HH_m": am / (am + bm),
		"HH_h": ah / (ah + bh),
		"HH_n": an / (an + bn),
	}
}

func (HH) AdvanceState(states States, voltages []float64, params Params, dt float64) {
	m, h, n := states["HH_m"], states["HH_h"], states["HH_n"]
	for i, v := range voltages {
		m[i] = expEulerGate(m[i], dt, alphaM(v), betaM(v))
		h[i] = expEulerGate(h[i], dt, alphaH(v), betaH(v))
		n[i] = expEulerGate(n[i], dt, alphaN(v), betaN(v))
	}
}

func (HH) LinearizeCurrent(states States, voltages []float64, params Params, vTerms, constTerms []float64) {
	m, h, n := states["HH_m"], states["HH_h"], states["HH_n"]
	gNa, gK, gL := params["HH_gNa"], params["HH_gK"], params["HH_gLeak"]
	eNa, eK, eL := params["HH_eNa"], params["HH_eK"], params["HH_eLeak"]
	for i := range voltages {
		na := gNa[i] * m[i] * m[i] * m[i] * h[i]
		k := gK[i] * n[i] * n[i] * n[i] * n[i]
		vTerms[i] += na + k + gL[i]
		constTerms[i] += na*eNa[i] + k*eK[i] + gL[i]*eL[i]
	}
}

func alphaM(v float64) float64 { return 0.1 * vtrap(-(v + 40), 10) }
func betaM(v float64) float64  { return 4 * math.Exp(-(v+65)/18) }
func alphaH(v float64) float64 { return 0.07 * math.Exp(-(v+65)/20) }
func betaH(v float64) float64  { return 1 / (1 + math.Exp(-(v+35)/10)) }
func alphaN(v float64) float64 { return 0.01 * vtrap(-(v + 55), 10) }
func betaN(v float64) float64  { return 0.125 * math.Exp(-(v+65)/80) }
