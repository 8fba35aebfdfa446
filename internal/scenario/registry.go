// Package scenario builds ready-to-run networks from configurations:
// each named scenario wires a morphology, its channels and synapses, the
// initial state and the stimulus.
package scenario

import (
	"fmt"
	"sort"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
	"github.com/mvelten/cabletree/internal/cond"
	"github.com/mvelten/cabletree/internal/config"
	"github.com/mvelten/cabletree/internal/morph"
	"github.com/mvelten/cabletree/internal/sim"
)

// Scenario is a fully wired simulation setup.
type Scenario struct {
	Name        string
	Description string
	Net         *sim.Network
	X0          cable.State
	Stim        *cable.Stimulus
}

type builder struct {
	describe string
	build    func(cfg *config.Config) (*Scenario, error)
}

type Registry struct {
	builders map[string]builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]builder)}

	r.builders["passive-cable"] = builder{
		describe: "single unbranched cable with leak channels",
		build:    buildPassiveCable,
	}
	r.builders["hh-soma"] = builder{
		describe: "single Hodgkin-Huxley compartment",
		build:    buildHHSoma,
	}
	r.builders["branched"] = builder{
		describe: "root branch with two children, HH everywhere",
		build:    buildBranched,
	}
	r.builders["two-cell"] = builder{
		describe: "two HH cells joined by an ionotropic synapse",
		build:    buildTwoCell,
	}
	r.builders["swc"] = builder{
		describe: "passive morphology loaded from an SWC file",
		build:    buildSWC,
	}

	return r
}

func (r *Registry) Get(name string, cfg *config.Config) (*Scenario, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	s, err := b.build(cfg)
	if err != nil {
		return nil, err
	}
	s.Name = name
	s.Description = b.describe
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Describe(name string) string {
	return r.builders[name].describe
}

func pulse(cfg *config.Config) *cable.Stimulus {
	start := int(cfg.Stim.Start / cfg.Dt)
	stop := int((cfg.Stim.Start + cfg.Stim.Duration) / cfg.Dt)
	trace := cable.StepCurrent(cfg.Stim.Amplitude, start, stop, cfg.Steps)
	return cable.NewStimulus().Add(cfg.Stim.Comp, trace)
}

func buildPassiveCable(cfg *config.Config) (*Scenario, error) {
	ncomp := cfg.NComp
	if ncomp < 1 {
		ncomp = config.DefaultNComp
	}
	proto := sim.DefaultCompartment()
	proto.AxialR = cfg.AxialR
	cell := sim.NewCell([]sim.Branch{sim.NewBranch(proto, ncomp)}, []int{-1})

	net, err := sim.SingleCell(cell)
	if err != nil {
		return nil, err
	}
	net.SetRestingPotential(cfg.VRest)
	if err := net.Insert(channels.NewLeak(), nil, map[string]float64{"Leak_e": cfg.VRest}); err != nil {
		return nil, err
	}
	return &Scenario{Net: net, X0: net.InitialState(), Stim: pulse(cfg)}, nil
}

func buildHHSoma(cfg *config.Config) (*Scenario, error) {
	proto := sim.DefaultCompartment()
	proto.Radius = 10.0
	proto.Length = 10.0
	cell := sim.NewCell([]sim.Branch{sim.NewBranch(proto, 1)}, []int{-1})

	net, err := sim.SingleCell(cell)
	if err != nil {
		return nil, err
	}
	net.SetRestingPotential(cfg.VRest)
	if err := net.Insert(channels.NewHH(), nil, nil); err != nil {
		return nil, err
	}
	return &Scenario{Net: net, X0: net.InitialState(), Stim: pulse(cfg)}, nil
}

func buildBranched(cfg *config.Config) (*Scenario, error) {
	ncomp := cfg.NComp
	if ncomp < 1 {
		ncomp = config.DefaultNComp
	}
	proto := sim.DefaultCompartment()
	proto.AxialR = cfg.AxialR
	br := sim.NewBranch(proto, ncomp)
	cell := sim.NewCell([]sim.Branch{br, br, br}, []int{-1, 0, 0})

	net, err := sim.SingleCell(cell)
	if err != nil {
		return nil, err
	}
	net.SetRestingPotential(cfg.VRest)
	if err := net.Insert(channels.NewHH(), nil, nil); err != nil {
		return nil, err
	}
	return &Scenario{Net: net, X0: net.InitialState(), Stim: pulse(cfg)}, nil
}

func buildTwoCell(cfg *config.Config) (*Scenario, error) {
	ncomp := cfg.NComp
	if ncomp < 1 {
		ncomp = config.DefaultNComp
	}
	proto := sim.DefaultCompartment()
	proto.AxialR = cfg.AxialR
	cell := sim.NewCell([]sim.Branch{sim.NewBranch(proto, ncomp)}, []int{-1})

	net, err := sim.NewNetwork([]sim.Cell{cell, cell}, cfg.MaxKids)
	if err != nil {
		return nil, err
	}
	net.SetRestingPotential(cfg.VRest)
	if err := net.Insert(channels.NewHH(), nil, nil); err != nil {
		return nil, err
	}
	// Last compartment of cell 0 drives the first compartment of cell 1.
	if err := net.Connect(channels.NewIonotropic(), ncomp-1, ncomp, map[string]float64{"Ionotropic_gS": 5e-4}); err != nil {
		return nil, err
	}
	return &Scenario{Net: net, X0: net.InitialState(), Stim: pulse(cfg)}, nil
}

func buildSWC(cfg *config.Config) (*Scenario, error) {
	if cfg.SWCFile == "" {
		return nil, fmt.Errorf("scenario swc requires swc_file")
	}
	m, err := morph.ReadSWC(cfg.SWCFile)
	if err != nil {
		return nil, err
	}
	ncomp := cfg.NComp
	if ncomp < 1 {
		ncomp = config.DefaultNComp
	}

	specs := []morph.CellSpec{{
		Parents: m.Parents,
		Comps:   make([]int, len(m.Parents)),
	}}
	for i := range specs[0].Comps {
		specs[0].Comps[i] = ncomp
	}
	topo, err := morph.Build(specs, cfg.MaxKids)
	if err != nil {
		return nil, err
	}
	geo, err := cond.FromBranches(topo, m.PathLengths, m.EndRadii, m.StartRadius, cfg.AxialR)
	if err != nil {
		return nil, err
	}

	branches := make([]sim.Branch, len(m.Parents))
	for b := range branches {
		lo, hi := topo.BranchComps(b)
		comps := make([]sim.Compartment, hi-lo)
		for i := range comps {
			comps[i] = sim.Compartment{
				Radius: geo.Radius[lo+i],
				Length: geo.Length[lo+i],
				AxialR: cfg.AxialR,
				Cm:     1.0,
			}
		}
		branches[b] = sim.Branch{Comps: comps}
	}
	cell := sim.NewCell(branches, m.Parents)

	net, err := sim.NewNetwork([]sim.Cell{cell}, cfg.MaxKids)
	if err != nil {
		return nil, err
	}
	net.SetRestingPotential(cfg.VRest)
	if err := net.Insert(channels.NewLeak(), nil, map[string]float64{"Leak_e": cfg.VRest}); err != nil {
		return nil, err
	}
	return &Scenario{Net: net, X0: net.InitialState(), Stim: pulse(cfg)}, nil
}
