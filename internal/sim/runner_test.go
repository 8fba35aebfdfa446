package sim

import (
	"context"
	"math"
	"testing"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
)

func TestRunRecordsStates(t *testing.T) {
	net := passiveCell(t, 2)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Dt: 0.025, Steps: 10, RecordEvery: 2}
	result, err := Run(context.Background(), net, net.InitialState(), cfg, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	// initial state plus every second step
	if len(result.States) != 6 || len(result.Times) != 6 {
		t.Fatalf("expected 6 records, got %d states / %d times", len(result.States), len(result.Times))
	}
	if result.Times[0] != 0 {
		t.Errorf("first record should be t=0, got %g", result.Times[0])
	}
	if math.Abs(result.Times[1]-0.05) > 1e-12 {
		t.Errorf("second record should be t=0.05, got %g", result.Times[1])
	}

	trace := result.VoltageTrace(0)
	if len(trace) != 6 {
		t.Errorf("trace length %d, want 6", len(trace))
	}
}

func TestRunDoesNotMutateInitialState(t *testing.T) {
	net := passiveCell(t, 1)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatal(err)
	}
	x0 := net.InitialState()
	x0[cable.VoltageKey][0] = -30

	stim := cable.NewStimulus().Add(0, cable.StepCurrent(0.5, 0, 5, 10))
	if _, err := Run(context.Background(), net, x0, Config{Dt: 0.025, Steps: 10, RecordEvery: 1}, stim); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if x0[cable.VoltageKey][0] != -30 {
		t.Errorf("initial state mutated: %g", x0[cable.VoltageKey][0])
	}
}

func TestRunAppliesStimulus(t *testing.T) {
	net := passiveCell(t, 1)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Dt: 0.025, Steps: 20, RecordEvery: 1}
	stim := cable.NewStimulus().Add(0, cable.StepCurrent(0.2, 0, 10, 20))

	withStim, err := Run(context.Background(), net, net.InitialState(), cfg, stim)
	if err != nil {
		t.Fatal(err)
	}
	quiet, err := Run(context.Background(), net, net.InitialState(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	vs := withStim.VoltageTrace(0)
	vq := quiet.VoltageTrace(0)
	if vs[10] <= vq[10] {
		t.Errorf("stimulated trace should depolarize: %g vs %g", vs[10], vq[10])
	}
	// after the pulse ends the voltage must relax back toward rest
	if vs[20] >= vs[10] {
		t.Errorf("trace should decay after the pulse: %g vs %g", vs[20], vs[10])
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	net := passiveCell(t, 1)
	if _, err := Run(context.Background(), net, net.InitialState(), Config{Dt: 0, Steps: 10}, nil); err == nil {
		t.Error("expected zero dt to be rejected")
	}
	if _, err := Run(context.Background(), net, net.InitialState(), Config{Dt: 0.025, Steps: 0}, nil); err == nil {
		t.Error("expected zero steps to be rejected")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	net := passiveCell(t, 1)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, net, net.InitialState(), Config{Dt: 0.025, Steps: 1000, RecordEvery: 1}, nil)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Error("expected the partial result with no steps taken")
	}
}

func TestEnsembleRunsIndependentStimuli(t *testing.T) {
	net := passiveCell(t, 1)
	if err := net.Insert(channels.NewLeak(), nil, nil); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Dt: 0.025, Steps: 20, RecordEvery: 1}
	stims := []*cable.Stimulus{
		nil,
		cable.NewStimulus().Add(0, cable.StepCurrent(0.1, 0, 20, 20)),
		cable.NewStimulus().Add(0, cable.StepCurrent(0.3, 0, 20, 20)),
	}

	results, err := NewEnsemble(net).Run(context.Background(), net.InitialState(), cfg, stims)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	final := make([]float64, 3)
	for i, r := range results {
		trace := r.VoltageTrace(0)
		final[i] = trace[len(trace)-1]
	}
	if !(final[0] < final[1] && final[1] < final[2]) {
		t.Errorf("stronger stimuli should depolarize more: %v", final)
	}
}

