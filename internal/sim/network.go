// Package sim assembles compartments, branches, cells and synapses into
// a simulatable network and provides the discrete state-advance step.
package sim

import (
	"fmt"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
	"github.com/mvelten/cabletree/internal/cond"
	"github.com/mvelten/cabletree/internal/morph"
)

// Compartment holds the morphometric parameters of one spatial unit.
// Radius and Length in µm, AxialR in Ω·cm, Cm in µF/cm².
type Compartment struct {
	Radius float64
	Length float64
	AxialR float64
	Cm     float64
}

// DefaultCompartment mirrors the conventional defaults of compartmental
// simulators: 1 µm radius, 10 µm length, 5 kΩ·cm axial resistivity,
// 1 µF/cm² membrane capacitance.
func DefaultCompartment() Compartment {
	return Compartment{Radius: 1.0, Length: 10.0, AxialR: 5000.0, Cm: 1.0}
}

// Branch is an ordered chain of compartments. The first compartment
// couples to the parent branch's last compartment.
type Branch struct {
	Comps []Compartment
}

// NewBranch builds a branch of n copies of a prototype compartment.
func NewBranch(proto Compartment, n int) Branch {
	comps := make([]Compartment, n)
	for i := range comps {
		comps[i] = proto
	}
	return Branch{Comps: comps}
}

// Cell is a tree of branches described by a parent array:
// Parents[i] is the index of branch i's parent, -1 for the root.
type Cell struct {
	Branches []Branch
	Parents  []int
}

func NewCell(branches []Branch, parents []int) Cell {
	return Cell{Branches: branches, Parents: parents}
}

type channelGroup struct {
	kin     channels.Channel
	members []int // global compartment indices, insertion order
	params  channels.Params
}

type synapseGroup struct {
	kin    channels.Synapse
	pre    []int // global presynaptic compartment per synapse
	post   []int // global postsynaptic compartment per synapse
	params channels.Params
}

// Network is a set of cells plus point-to-point synaptic connections.
// Morphology-derived structures are immutable after construction and may
// be shared across concurrent Step invocations on independent states.
type Network struct {
	topo  *morph.Topology
	conds *cond.Conductances
	cm    []float64
	vRest float64

	chans    []*channelGroup
	syns     []*synapseGroup
	occupied map[string][]bool // channel name -> per-compartment insertion flag
}

// NewNetwork indexes the cells and builds coupling conductances.
// maxKids <= 0 selects the default fan-out bound.
func NewNetwork(cells []Cell, maxKids int) (*Network, error) {
	specs := make([]morph.CellSpec, len(cells))
	for c, cell := range cells {
		spec := morph.CellSpec{
			Parents: cell.Parents,
			Comps:   make([]int, len(cell.Branches)),
		}
		for b, br := range cell.Branches {
			spec.Comps[b] = len(br.Comps)
		}
		specs[c] = spec
	}

	topo, err := morph.Build(specs, maxKids)
	if err != nil {
		return nil, err
	}

	geo := cond.Geometry{
		Radius: make([]float64, topo.NumComps),
		Length: make([]float64, topo.NumComps),
		AxialR: make([]float64, topo.NumComps),
	}
	cm := make([]float64, topo.NumComps)
	i := 0
	for _, cell := range cells {
		for _, br := range cell.Branches {
			for _, comp := range br.Comps {
				geo.Radius[i] = comp.Radius
				geo.Length[i] = comp.Length
				geo.AxialR[i] = comp.AxialR
				cm[i] = comp.Cm
				i++
			}
		}
	}

	conds, err := cond.Build(topo, geo)
	if err != nil {
		return nil, err
	}
	scaleByCm(topo, conds, cm)

	return &Network{
		topo:     topo,
		conds:    conds,
		cm:       cm,
		vRest:    -70.0,
		occupied: make(map[string][]bool),
	}, nil
}

// SingleCell wraps one cell in a network.
func SingleCell(c Cell) (*Network, error) {
	return NewNetwork([]Cell{c}, 0)
}

// scaleByCm folds the membrane capacitance into the axial couplings:
// every coupling is divided by the receiving compartment's capacitance,
// matching the 1/Cm factor applied to the membrane-current terms.
func scaleByCm(topo *morph.Topology, c *cond.Conductances, cm []float64) {
	for i := range cm {
		c.Upper[i] /= cm[i]
		c.Lower[i] /= cm[i]
		c.Summed[i] /= cm[i]
	}
	for b := 0; b < topo.NumBranches; b++ {
		if p := topo.Parents[b]; p >= 0 {
			lo, _ := topo.BranchComps(b)
			c.ParentCond[b] /= cm[lo]
			c.ChildCond[b] /= cm[topo.CompOffset[p+1]-1]
		}
	}
}

// Topology exposes the flattened indexing for compartment lookups.
func (n *Network) Topology() *morph.Topology { return n.topo }

// NumComps returns the total compartment count.
func (n *Network) NumComps() int { return n.topo.NumComps }

// SetRestingPotential sets the voltage used by InitialState (mV).
func (n *Network) SetRestingPotential(v float64) { n.vRest = v }

// Insert adds a channel on the given global compartment indices (nil
// inserts everywhere). Overrides replace the model's default parameters
// for every member. Inserting the same model twice on one compartment is
// a configuration error.
func (n *Network) Insert(kin channels.Channel, comps []int, overrides map[string]float64) error {
	if comps == nil {
		comps = make([]int, n.topo.NumComps)
		for i := range comps {
			comps[i] = i
		}
	}
	occ := n.occupied[kin.Name()]
	if occ == nil {
		occ = make([]bool, n.topo.NumComps)
		n.occupied[kin.Name()] = occ
	}
	for _, c := range comps {
		if c < 0 || c >= n.topo.NumComps {
			return &cable.ConfigurationError{Message: fmt.Sprintf("insert %s: compartment %d out of range", kin.Name(), c)}
		}
		if occ[c] {
			return &cable.ConfigurationError{Message: fmt.Sprintf("insert %s: compartment %d already has this channel", kin.Name(), c)}
		}
		occ[c] = true
	}

	g := &channelGroup{
		kin:     kin,
		members: append([]int(nil), comps...),
		params:  broadcastParams(kin.DefaultParams(), overrides, len(comps), kin.Name()),
	}
	if g.params == nil {
		return &cable.ConfigurationError{Message: fmt.Sprintf("insert %s: unknown parameter override", kin.Name())}
	}
	n.chans = append(n.chans, g)
	return nil
}

// Connect adds one synapse from a presynaptic to a postsynaptic global
// compartment. Synapses of the same model accumulate into one group;
// multiple synapses may target the same postsynaptic compartment.
func (n *Network) Connect(kin channels.Synapse, pre, post int, overrides map[string]float64) error {
	if pre < 0 || pre >= n.topo.NumComps || post < 0 || post >= n.topo.NumComps {
		return &cable.ConfigurationError{Message: fmt.Sprintf("connect %s: compartment index out of range (pre %d, post %d)", kin.Name(), pre, post)}
	}
	row := broadcastParams(kin.DefaultParams(), overrides, 1, kin.Name())
	if row == nil {
		return &cable.ConfigurationError{Message: fmt.Sprintf("connect %s: unknown parameter override", kin.Name())}
	}

	var g *synapseGroup
	for _, sg := range n.syns {
		if sg.kin.Name() == kin.Name() {
			g = sg
			break
		}
	}
	if g == nil {
		g = &synapseGroup{kin: kin, params: make(channels.Params)}
		n.syns = append(n.syns, g)
	}
	g.pre = append(g.pre, pre)
	g.post = append(g.post, post)
	for k, arr := range row {
		g.params[k] = append(g.params[k], arr[0])
	}
	return nil
}

// broadcastParams expands scalar defaults (plus overrides) to per-member
// arrays. Returns nil if an override names an unknown parameter.
func broadcastParams(defaults, overrides map[string]float64, nMembers int, _ string) channels.Params {
	vals := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		vals[k] = v
	}
	for k, v := range overrides {
		if _, ok := vals[k]; !ok {
			return nil
		}
		vals[k] = v
	}
	p := make(channels.Params, len(vals))
	for k, v := range vals {
		arr := make([]float64, nMembers)
		for i := range arr {
			arr[i] = v
		}
		p[k] = arr
	}
	return p
}

// InitialState builds the full state vector: resting voltage everywhere,
// channel gating at its steady state for the resting voltage, synapse
// states at their model defaults.
func (n *Network) InitialState() cable.State {
	state := cable.State{}
	v := make([]float64, n.topo.NumComps)
	for i := range v {
		v[i] = n.vRest
	}
	state[cable.VoltageKey] = v

	for _, g := range n.chans {
		init := g.kin.InitState(n.vRest)
		for _, name := range g.kin.StateNames() {
			if _, ok := state[name]; ok {
				continue
			}
			arr := make([]float64, n.topo.NumComps)
			for i := range arr {
				arr[i] = init[name]
			}
			state[name] = arr
		}
	}
	for _, g := range n.syns {
		init := g.kin.InitState()
		for _, name := range g.kin.StateNames() {
			arr := make([]float64, len(g.pre))
			for i := range arr {
				arr[i] = init[name]
			}
			state[name] = arr
		}
	}
	return state
}
