package channels

import "math"

// expEulerGate advances a first-order gating variable one step with the
// exponential Euler scheme: x relaxes toward alpha/(alpha+beta) with time
// constant 1/(alpha+beta).
func expEulerGate(x, dt, alpha, beta float64) float64 {
	tau := 1 / (alpha + beta)
	xInf := alpha * tau
	return xInf + (x-xInf)*math.Exp(-dt/tau)
}

// vtrap evaluates x / (exp(x/y) - 1), the recurring singular factor of
// the Hodgkin-Huxley rate functions, switching to the series limit near
// the removable singularity at x = 0.
func vtrap(x, y float64) float64 {
	if math.Abs(x/y) < 1e-6 {
		return y * (1 - x/y/2)
	}
	return x / (math.Exp(x/y) - 1)
}
