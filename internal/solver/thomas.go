package solver

import (
	"fmt"
	"math"

	"github.com/mvelten/cabletree/internal/cable"
)

// SolveTridiag solves a classical tridiagonal system with the Thomas
// algorithm:
//
//	diag[i]*x[i] + upper[i]*x[i+1] + lower[i]*x[i-1] = rhs[i]
//
// lower[0] and upper[n-1] are ignored. Inputs are left untouched; the
// branched solver must agree with this on any single unbranched chain.
func SolveTridiag(lower, diag, upper, rhs []float64) ([]float64, error) {
	n := len(diag)
	if len(lower) != n || len(upper) != n || len(rhs) != n {
		return nil, &cable.ConfigurationError{Message: "tridiagonal arrays differ in length"}
	}

	cp := make([]float64, n) // reduced upper
	dp := make([]float64, n) // reduced rhs

	d := diag[0]
	if err := checkPivot(0, d); err != nil {
		return nil, err
	}
	cp[0] = upper[0] / d
	dp[0] = rhs[0] / d

	for i := 1; i < n; i++ {
		denom := diag[i] - lower[i]*cp[i-1]
		if err := checkPivot(i, denom); err != nil {
			return nil, err
		}
		cp[i] = upper[i] / denom
		dp[i] = (rhs[i] - lower[i]*dp[i-1]) / denom
	}

	x := make([]float64, n)
	x[n-1] = dp[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dp[i] - cp[i]*x[i+1]
	}
	return x, nil
}

func checkPivot(i int, d float64) error {
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return &cable.NumericalError{
			Branch:      0,
			Compartment: i,
			Message:     fmt.Sprintf("singular pivot %v", d),
		}
	}
	return nil
}
