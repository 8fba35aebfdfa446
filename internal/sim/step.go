package sim

import (
	"fmt"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
	"github.com/mvelten/cabletree/internal/solver"
)

// kineticsChunk is the member count below which a kinetics batch runs
// serially.
const kineticsChunk = 512

// Step advances the network by one implicit time step: channel states
// advance first, then all channel and synapse currents are linearized
// and accumulated per compartment together with the external stimulus,
// and the branched tridiagonal solve produces the new voltages.
//
// Current linearization is evaluated at the already-advanced channel
// state but the pre-step voltage, preserving the quasi-implicit coupling
// of the reference scheme. Synapses read the presynaptic compartment's
// previous voltage and write only to the postsynaptic accumulators.
//
// Step is a pure function of its inputs: the input state is not
// mutated, and no state is kept between calls.
func (n *Network) Step(state cable.State, dt float64, inj map[int]float64) (cable.State, error) {
	if dt <= 0 {
		return nil, &cable.ConfigurationError{Message: fmt.Sprintf("dt must be positive, got %v", dt)}
	}
	nc := n.topo.NumComps
	v := state.Voltages()
	if len(v) != nc {
		return nil, &cable.ConfigurationError{Message: fmt.Sprintf("state has %d voltages, network has %d compartments", len(v), nc)}
	}

	next := state.Clone()
	vTerms := make([]float64, nc)
	constTerms := make([]float64, nc)

	for _, g := range n.chans {
		if err := n.stepChannelGroup(g, state, next, v, vTerms, constTerms, dt); err != nil {
			return nil, err
		}
	}

	for comp, cur := range inj {
		if comp < 0 || comp >= nc {
			return nil, &cable.ConfigurationError{Message: fmt.Sprintf("stimulus compartment %d out of range", comp)}
		}
		constTerms[comp] += cur * n.conds.CurrentScale(comp)
	}

	for _, g := range n.syns {
		if err := n.stepSynapseGroup(g, state, next, v, vTerms, constTerms, dt); err != nil {
			return nil, err
		}
	}

	for i := 0; i < nc; i++ {
		vTerms[i] /= n.cm[i]
		constTerms[i] /= n.cm[i]
	}

	sys := solver.NewSystem(n.topo, n.conds)
	newV, err := sys.Solve(vTerms, constTerms, v, dt)
	if err != nil {
		return nil, err
	}
	copy(next[cable.VoltageKey], newV)
	return next, nil
}

func (n *Network) stepChannelGroup(g *channelGroup, state, next cable.State, v, vTerms, constTerms []float64, dt float64) error {
	m := len(g.members)
	memberV := make([]float64, m)
	for j, c := range g.members {
		memberV[j] = v[c]
	}

	st := make(channels.States, len(g.kin.StateNames()))
	for _, name := range g.kin.StateNames() {
		arr, ok := state[name]
		if !ok || len(arr) != n.topo.NumComps {
			return &cable.ConfigurationError{Message: fmt.Sprintf("state entry %q missing or wrong length", name)}
		}
		gathered := make([]float64, m)
		for j, c := range g.members {
			gathered[j] = arr[c]
		}
		st[name] = gathered
	}

	vt := make([]float64, m)
	ct := make([]float64, m)
	cable.ParallelFor(m, kineticsChunk, func(lo, hi int) {
		sub := subStates(st, lo, hi)
		subP := subParams(g.params, lo, hi)
		g.kin.AdvanceState(sub, memberV[lo:hi], subP, dt)
		g.kin.LinearizeCurrent(sub, memberV[lo:hi], subP, vt[lo:hi], ct[lo:hi])
	})

	for _, name := range g.kin.StateNames() {
		dst := next[name]
		src := st[name]
		for j, c := range g.members {
			dst[c] = src[j]
		}
	}
	for j, c := range g.members {
		vTerms[c] += vt[j]
		constTerms[c] += ct[j]
	}
	return nil
}

func (n *Network) stepSynapseGroup(g *synapseGroup, state, next cable.State, v, vTerms, constTerms []float64, dt float64) error {
	m := len(g.pre)
	preV := make([]float64, m)
	postV := make([]float64, m)
	for j := range g.pre {
		preV[j] = v[g.pre[j]]
		postV[j] = v[g.post[j]]
	}

	st := make(channels.States, len(g.kin.StateNames()))
	for _, name := range g.kin.StateNames() {
		arr, ok := state[name]
		if !ok || len(arr) != m {
			return &cable.ConfigurationError{Message: fmt.Sprintf("synapse state entry %q missing or wrong length", name)}
		}
		gathered := make([]float64, m)
		copy(gathered, arr)
		st[name] = gathered
	}

	vt := make([]float64, m)
	ct := make([]float64, m)
	cable.ParallelFor(m, kineticsChunk, func(lo, hi int) {
		sub := subStates(st, lo, hi)
		subP := subParams(g.params, lo, hi)
		g.kin.AdvanceState(sub, preV[lo:hi], subP, dt)
		g.kin.LinearizeCurrent(sub, postV[lo:hi], subP, vt[lo:hi], ct[lo:hi])
	})

	for _, name := range g.kin.StateNames() {
		copy(next[name], st[name])
	}
	// Point currents convert to density at the postsynaptic membrane.
	for j, post := range g.post {
		scale := n.conds.CurrentScale(post)
		vTerms[post] += vt[j] * scale
		constTerms[post] += ct[j] * scale
	}
	return nil
}

func subStates(st channels.States, lo, hi int) channels.States {
	sub := make(channels.States, len(st))
	for k, arr := range st {
		sub[k] = arr[lo:hi]
	}
	return sub
}

func subParams(p channels.Params, lo, hi int) channels.Params {
	sub := make(channels.Params, len(p))
	for k, arr := range p {
		sub[k] = arr[lo:hi]
	}
	return sub
}
