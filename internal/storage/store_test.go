package storage

import (
	"math"
	"testing"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0, 0.025, 0.05},
		States: []cable.State{
			{cable.VoltageKey: {-70, -70}},
			{cable.VoltageKey: {-69.5, -70.1}},
			{cable.VoltageKey: {-68.25, -70.25}},
		},
		StepsTaken: 2,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	cfg := sim.Config{Dt: 0.025, Steps: 2, RecordEvery: 1}
	runID, err := store.Save("hh-soma", cfg, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Scenario != "hh-soma" {
		t.Errorf("metadata wrong: %+v", meta)
	}
	if meta.Steps != 2 || meta.Comps != 2 || meta.Dt != 0.025 {
		t.Errorf("run shape wrong: %+v", meta)
	}

	voltages, times, err := store.LoadVoltages(runID)
	if err != nil {
		t.Fatalf("load voltages failed: %v", err)
	}
	if len(voltages) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 rows, got %d / %d", len(voltages), len(times))
	}
	if math.Abs(times[1]-0.025) > 1e-9 {
		t.Errorf("times[1] = %g", times[1])
	}
	if math.Abs(voltages[2][0]+68.25) > 1e-6 || math.Abs(voltages[2][1]+70.25) > 1e-6 {
		t.Errorf("last row wrong: %v", voltages[2])
	}
}

func TestList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("fresh store should be empty, got %d runs", len(runs))
	}

	cfg := sim.Config{Dt: 0.025, Steps: 2, RecordEvery: 1}
	if _, err := store.Save("a", cfg, sampleResult()); err != nil {
		t.Fatal(err)
	}

	runs, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Scenario != "a" {
		t.Errorf("list wrong: %+v", runs)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	store := New(t.TempDir() + "/never-created")
	runs, err := store.List()
	if err != nil {
		t.Fatalf("missing base dir should not be an error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadUnknownRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
	if _, _, err := store.LoadVoltages("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
}
