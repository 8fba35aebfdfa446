package sim

import (
	"math"
	"testing"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
)

func passiveCell(t *testing.T, ncomp int) *Network {
	t.Helper()
	net, err := SingleCell(NewCell([]Branch{NewBranch(DefaultCompartment(), ncomp)}, []int{-1}))
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestNewNetworkSizes(t *testing.T) {
	proto := DefaultCompartment()
	net, err := NewNetwork([]Cell{
		NewCell([]Branch{NewBranch(proto, 2), NewBranch(proto, 3)}, []int{-1, 0}),
		NewCell([]Branch{NewBranch(proto, 1)}, []int{-1}),
	}, 0)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if net.NumComps() != 6 {
		t.Errorf("expected 6 compartments, got %d", net.NumComps())
	}
	if net.Topology().NumCells != 2 {
		t.Errorf("expected 2 cells, got %d", net.Topology().NumCells)
	}
}

func TestNewNetworkRejectsBadTree(t *testing.T) {
	_, err := SingleCell(NewCell([]Branch{NewBranch(DefaultCompartment(), 2)}, []int{0}))
	if err == nil {
		t.Fatal("expected error for a cell without a root")
	}
}

func TestInsertEverywhere(t *testing.T) {
	net := passiveCell(t, 3)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	state := net.InitialState()
	if len(state.Voltages()) != 3 {
		t.Fatalf("expected 3 voltages, got %d", len(state.Voltages()))
	}
	for _, v := range state.Voltages() {
		if v != -70.0 {
			t.Errorf("expected resting voltage -70, got %g", v)
		}
	}
}

func TestInsertRejectsDoubleInsertion(t *testing.T) {
	net := passiveCell(t, 3)
	if err := net.Insert(channels.NewLeak(), []int{0, 1}, nil); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := net.Insert(channels.NewLeak(), []int{1, 2}, nil); err == nil {
		t.Error("expected overlap on compartment 1 to be rejected")
	}
	// disjoint insertion of the same model is fine
	if err := net.Insert(channels.NewLeak(), []int{2}, nil); err != nil {
		t.Errorf("disjoint insert failed: %v", err)
	}
}

func TestInsertRejectsBadInput(t *testing.T) {
	net := passiveCell(t, 2)
	if err := net.Insert(channels.NewLeak(), []int{5}, nil); err == nil {
		t.Error("expected out-of-range compartment to be rejected")
	}
	if err := net.Insert(channels.NewLeak(), []int{0}, map[string]float64{"bogus": 1}); err == nil {
		t.Error("expected unknown override to be rejected")
	}
}

func TestInsertOverrides(t *testing.T) {
	net := passiveCell(t, 2)
	err := net.Insert(channels.NewLeak(), nil, map[string]float64{"Leak_g": 0.7})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	g := net.chans[0].params["Leak_g"]
	if len(g) != 2 || g[0] != 0.7 || g[1] != 0.7 {
		t.Errorf("override not broadcast: %v", g)
	}
	e := net.chans[0].params["Leak_e"]
	if e[0] != -70.0 {
		t.Errorf("non-overridden parameter should keep its default, got %g", e[0])
	}
}

func TestConnectGroupsByModel(t *testing.T) {
	net := passiveCell(t, 4)
	if err := net.Connect(channels.NewIonotropic(), 0, 2, nil); err != nil {
		t.Fatal(err)
	}
	if err := net.Connect(channels.NewIonotropic(), 1, 3, map[string]float64{"Ionotropic_gS": 2e-4}); err != nil {
		t.Fatal(err)
	}
	if len(net.syns) != 1 {
		t.Fatalf("expected one group, got %d", len(net.syns))
	}
	g := net.syns[0]
	if len(g.pre) != 2 || g.pre[1] != 1 || g.post[1] != 3 {
		t.Errorf("synapse endpoints wrong: pre %v post %v", g.pre, g.post)
	}
	gs := g.params["Ionotropic_gS"]
	if gs[0] != 1e-4 || gs[1] != 2e-4 {
		t.Errorf("per-synapse override wrong: %v", gs)
	}
}

func TestConnectRejectsBadIndices(t *testing.T) {
	net := passiveCell(t, 2)
	if err := net.Connect(channels.NewIonotropic(), -1, 0, nil); err == nil {
		t.Error("expected negative pre index to be rejected")
	}
	if err := net.Connect(channels.NewIonotropic(), 0, 2, nil); err == nil {
		t.Error("expected out-of-range post index to be rejected")
	}
	if err := net.Connect(channels.NewIonotropic(), 0, 1, map[string]float64{"nope": 1}); err == nil {
		t.Error("expected unknown override to be rejected")
	}
}

func TestInitialStateShapes(t *testing.T) {
	net := passiveCell(t, 3)
	net.SetRestingPotential(-65)
	if err := net.Insert(channels.NewHH(), nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := net.Connect(channels.NewIonotropic(), 0, 2, nil); err != nil {
		t.Fatal(err)
	}

	state := net.InitialState()
	if !state.IsValid() {
		t.Fatal("initial state not finite")
	}
	for _, name := range []string{"HH_m", "HH_h", "HH_n"} {
		if len(state[name]) != 3 {
			t.Errorf("%s should span all compartments, got %d", name, len(state[name]))
		}
	}
	if len(state["Ionotropic_s"]) != 1 {
		t.Errorf("synapse state should have one entry per synapse, got %d", len(state["Ionotropic_s"]))
	}

	// gating starts at its steady state for the resting voltage
	want := channels.NewHH().InitState(-65)
	for name, arr := range map[string][]float64{
		"HH_m": state["HH_m"], "HH_h": state["HH_h"], "HH_n": state["HH_n"],
	} {
		if math.Abs(arr[0]-want[name]) > 1e-12 {
			t.Errorf("%s = %g, want %g", name, arr[0], want[name])
		}
	}
}

func TestStateHelpers(t *testing.T) {
	a := cable.State{cable.VoltageKey: {1, 2}, "x": {3}}
	b := a.Clone()
	b[cable.VoltageKey][0] = 9
	if a[cable.VoltageKey][0] != 1 {
		t.Error("clone should not alias the original arrays")
	}
	if !a.SameShape(b) {
		t.Error("clone should keep the shape")
	}
	delete(b, "x")
	if a.SameShape(b) {
		t.Error("shape mismatch not detected")
	}
}
