// Package cond computes the axial coupling conductances of a discretized
// morphology: forward/backward couplings between adjacent compartments,
// branch-boundary couplings, and the per-compartment summed coupling
// required by the implicit discretization.
package cond

import (
	"math"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/morph"
)

// geomFloor clamps non-positive radii and lengths. Non-positive geometry
// is caller error; the clamp only keeps the arithmetic finite.
const geomFloor = 1e-8

// currentToDensity converts an injected point current (nA) over a
// membrane area (µm²) into a current density (µA/cm²).
const currentToDensity = 100_000.0

// Geometry holds per-compartment morphometric parameters.
// Radius and Length are in µm, AxialR in Ω·cm.
type Geometry struct {
	Radius []float64
	Length []float64
	AxialR []float64
}

// Conductances holds the coupling terms of the implicit voltage system.
// All couplings are normalized by the receiving compartment's membrane
// area, so they share units with channel conductance densities.
type Conductances struct {
	// Upper[i] couples compartment i to its within-branch neighbor i+1;
	// zero on each branch's last compartment.
	Upper []float64

	// Lower[i] couples compartment i to its within-branch neighbor i-1;
	// zero on each branch's first compartment.
	Lower []float64

	// ParentCond[b] couples branch b's first compartment to its parent
	// branch's last compartment; zero for roots.
	ParentCond []float64

	// ChildCond[b] couples the parent branch's last compartment to
	// branch b's first compartment; zero for roots.
	ChildCond []float64

	// Summed[i] is the sum of all couplings incident on compartment i:
	// the diagonal contribution of the discretization.
	Summed []float64

	// Area[i] is the membrane surface area of compartment i (µm²).
	Area []float64
}

// Build derives the coupling conductances for a topology. The geometry
// arrays must be global-compartment length; a mismatch is a
// *cable.ConfigurationError.
func Build(topo *morph.Topology, geo Geometry) (*Conductances, error) {
	n := topo.NumComps
	if len(geo.Radius) != n || len(geo.Length) != n || len(geo.AxialR) != n {
		return nil, &cable.ConfigurationError{Message: "geometry arrays do not match compartment count"}
	}

	c := &Conductances{
		Upper:      make([]float64, n),
		Lower:      make([]float64, n),
		ParentCond: make([]float64, topo.NumBranches),
		ChildCond:  make([]float64, topo.NumBranches),
		Summed:     make([]float64, n),
		Area:       make([]float64, n),
	}

	rad := make([]float64, n)
	length := make([]float64, n)
	axial := make([]float64, n)
	for i := 0; i < n; i++ {
		rad[i] = math.Max(geo.Radius[i], geomFloor)
		length[i] = math.Max(geo.Length[i], geomFloor)
		axial[i] = math.Max(geo.AxialR[i], geomFloor)
		c.Area[i] = 2 * math.Pi * rad[i] * length[i]
	}

	for b := 0; b < topo.NumBranches; b++ {
		lo, hi := topo.BranchComps(b)
		for i := lo; i < hi-1; i++ {
			c.Upper[i] = coupling(rad[i], rad[i+1], axial[i], axial[i+1], length[i], length[i+1])
			c.Lower[i+1] = coupling(rad[i+1], rad[i], axial[i+1], axial[i], length[i+1], length[i])
		}
		if p := topo.Parents[b]; p >= 0 {
			pl := topo.CompOffset[p+1] - 1 // parent branch's last compartment
			c.ParentCond[b] = coupling(rad[lo], rad[pl], axial[lo], axial[pl], length[lo], length[pl])
			c.ChildCond[b] = coupling(rad[pl], rad[lo], axial[pl], axial[lo], length[pl], length[lo])
		}
	}

	for b := 0; b < topo.NumBranches; b++ {
		lo, hi := topo.BranchComps(b)
		for i := lo; i < hi; i++ {
			c.Summed[i] = c.Upper[i] + c.Lower[i]
		}
		c.Summed[lo] += c.ParentCond[b]
		if p := topo.Parents[b]; p >= 0 {
			c.Summed[topo.CompOffset[p+1]-1] += c.ChildCond[b]
		}
	}

	return c, nil
}

// coupling is the conductance felt by the receiving compartment (radius
// r1, length l1) from its neighbor (r2, l2): the series combination of the
// two half-compartment axial resistances, normalized by the receiver's
// membrane area. Units work out to mS/cm² per mV of voltage difference
// when radii and lengths are in µm and resistivity in Ω·cm.
func coupling(r1, r2, ra1, ra2, l1, l2 float64) float64 {
	return r1 * r2 * r2 / (ra1*r2*r2*l1 + ra2*r1*r1*l2) / l1
}

// CurrentScale returns the factor converting an injected point current
// (nA) at compartment i into the density units of the voltage equation.
func (c *Conductances) CurrentScale(i int) float64 {
	return currentToDensity / c.Area[i]
}

// UniformGeometry builds a geometry with identical compartments.
func UniformGeometry(n int, radius, length, axialR float64) Geometry {
	g := Geometry{
		Radius: make([]float64, n),
		Length: make([]float64, n),
		AxialR: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		g.Radius[i] = radius
		g.Length[i] = length
		g.AxialR[i] = axialR
	}
	return g
}

// FromBranches derives per-compartment geometry from per-branch path
// lengths and endpoint radii, splitting each branch into equal-length
// compartments and interpolating the radius linearly from the branch's
// proximal end to its endpoint.
func FromBranches(topo *morph.Topology, pathLengths, endRadii []float64, startRadius, axialR float64) (Geometry, error) {
	if len(pathLengths) != topo.NumBranches || len(endRadii) != topo.NumBranches {
		return Geometry{}, &cable.ConfigurationError{Message: "per-branch morphometry does not match branch count"}
	}
	geo := UniformGeometry(topo.NumComps, 0, 0, axialR)
	for b := 0; b < topo.NumBranches; b++ {
		lo, hi := topo.BranchComps(b)
		ncomp := hi - lo
		startR := startRadius
		if p := topo.Parents[b]; p >= 0 {
			startR = endRadii[p]
		}
		for i := 0; i < ncomp; i++ {
			frac := (float64(i) + 0.5) / float64(ncomp)
			geo.Radius[lo+i] = startR + (endRadii[b]-startR)*frac
			geo.Length[lo+i] = pathLengths[b] / float64(ncomp)
		}
	}
	return geo, nil
}
