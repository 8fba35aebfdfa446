// Package solver implements the implicit voltage step for branched
// morphologies: a backward-Euler discretization of the cable equation
// solved exactly once per step by tree-structured Gaussian elimination.
//
// Within a single branch the algorithm reduces to the classical Thomas
// algorithm for tridiagonal systems. Across branch points, each child
// branch's reduced first row is absorbed into its parent branch's last
// row, level by level from the deepest level to the roots, so the whole
// tree is solved in two passes without general sparse machinery.
package solver

import (
	"fmt"
	"math"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/cond"
	"github.com/mvelten/cabletree/internal/morph"
)

// minChunk is the branch count below which a level is processed serially.
const minChunk = 8

// System holds the per-step scratch arrays of the implicit solve. A
// System may be reused across steps of one simulation but must not be
// shared between concurrent steps; morphology and conductances are
// read-only and safely shared.
type System struct {
	topo  *morph.Topology
	conds *cond.Conductances

	diag  []float64
	rhs   []float64
	upper []float64 // -dt-scaled coupling toward the next compartment
	lower []float64 // -dt-scaled coupling toward the previous compartment
	out   []float64
}

func NewSystem(topo *morph.Topology, conds *cond.Conductances) *System {
	n := topo.NumComps
	return &System{
		topo:  topo,
		conds: conds,
		diag:  make([]float64, n),
		rhs:   make([]float64, n),
		upper: make([]float64, n),
		lower: make([]float64, n),
		out:   make([]float64, n),
	}
}

// Solve computes the new voltages satisfying, for every compartment i,
//
//	(1 + dt*(vTerm_i + summed_i))*v_i - dt*Σ g_neighbor*v_neighbor
//	    = vOld_i + dt*constTerm_i
//
// where the neighbor sum runs over the within-branch neighbors, the
// parent branch's last compartment and the first compartments of child
// branches. The returned slice is owned by the System and overwritten by
// the next call.
func (s *System) Solve(vTerms, constTerms, vOld []float64, dt float64) ([]float64, error) {
	t, c := s.topo, s.conds
	n := t.NumComps
	if len(vTerms) != n || len(constTerms) != n || len(vOld) != n {
		return nil, &cable.ConfigurationError{Message: "solver input arrays do not match compartment count"}
	}

	cable.ParallelFor(n, 256, func(start, end int) {
		for i := start; i < end; i++ {
			s.diag[i] = 1 + dt*(vTerms[i]+c.Summed[i])
			s.rhs[i] = vOld[i] + dt*constTerms[i]
			s.upper[i] = dt * c.Upper[i]
			s.lower[i] = dt * c.Lower[i]
		}
	})

	if err := s.triangulate(dt); err != nil {
		return nil, err
	}
	if err := s.backsubstitute(dt); err != nil {
		return nil, err
	}
	return s.out, nil
}

// triangulate runs forward elimination from the deepest level to the
// roots. Branches within a level touch only their own rows and read
// their (already reduced) children's rows, so each level runs in
// parallel.
func (s *System) triangulate(dt float64) error {
	t := s.topo
	var firstErr error
	for lvl := len(t.Levels) - 1; lvl >= 0; lvl-- {
		branches := t.Levels[lvl]
		errs := make([]error, len(branches))
		cable.ParallelFor(len(branches), minChunk, func(start, end int) {
			for bi := start; bi < end; bi++ {
				errs[bi] = s.reduceBranch(branches[bi], dt)
			}
		})
		for _, err := range errs {
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

// reduceBranch absorbs branch b's children into its last compartment's
// row, then eliminates within the branch toward its first compartment.
// Afterwards the first row reads diag*v0 - dt*parentCond*vParentLast = rhs.
func (s *System) reduceBranch(b int, dt float64) error {
	t, c := s.topo, s.conds
	lo, hi := t.BranchComps(b)
	last := hi - 1

	for _, child := range t.Children[b] {
		c0 := t.CompOffset[child]
		if err := s.checkDiag(child, c0); err != nil {
			return err
		}
		k := dt * c.ChildCond[child]  // coupling in the parent's row
		p := dt * c.ParentCond[child] // coupling in the child's reduced row
		s.diag[last] -= k * p / s.diag[c0]
		s.rhs[last] += k * s.rhs[c0] / s.diag[c0]
	}

	for i := last - 1; i >= lo; i-- {
		if err := s.checkDiag(b, i+1); err != nil {
			return err
		}
		factor := s.upper[i] / s.diag[i+1]
		s.diag[i] -= factor * s.lower[i+1]
		s.rhs[i] += factor * s.rhs[i+1]
	}
	return nil
}

// backsubstitute solves the roots directly, then propagates solved parent
// voltages down the levels.
func (s *System) backsubstitute(dt float64) error {
	t := s.topo
	var firstErr error
	for lvl := 0; lvl < len(t.Levels); lvl++ {
		branches := t.Levels[lvl]
		errs := make([]error, len(branches))
		cable.ParallelFor(len(branches), minChunk, func(start, end int) {
			for bi := start; bi < end; bi++ {
				errs[bi] = s.solveBranch(branches[bi], dt)
			}
		})
		for _, err := range errs {
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

func (s *System) solveBranch(b int, dt float64) error {
	t, c := s.topo, s.conds
	lo, hi := t.BranchComps(b)

	if err := s.checkDiag(b, lo); err != nil {
		return err
	}
	if p := t.Parents[b]; p >= 0 {
		vParent := s.out[t.CompOffset[p+1]-1]
		s.out[lo] = (s.rhs[lo] + dt*c.ParentCond[b]*vParent) / s.diag[lo]
	} else {
		s.out[lo] = s.rhs[lo] / s.diag[lo]
	}

	for i := lo + 1; i < hi; i++ {
		if err := s.checkDiag(b, i); err != nil {
			return err
		}
		s.out[i] = (s.rhs[i] + s.lower[i]*s.out[i-1]) / s.diag[i]
	}
	return nil
}

func (s *System) checkDiag(branch, i int) error {
	d := s.diag[i]
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return &cable.NumericalError{
			Branch:      branch,
			Compartment: i,
			Message:     fmt.Sprintf("singular diagonal %v", d),
		}
	}
	return nil
}
