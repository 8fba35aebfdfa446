package sim

import (
	"context"
	"fmt"

	"github.com/mvelten/cabletree/internal/cable"
)

// Config controls a multi-step integration. The time step is fixed for
// the whole run; step-size policy belongs to the caller.
type Config struct {
	Dt          float64 // ms
	Steps       int
	RecordEvery int // record every k-th state, 0 records every step
}

func DefaultConfig() Config {
	return Config{Dt: 0.025, Steps: 4000, RecordEvery: 1}
}

// Result collects the recorded states of one run.
type Result struct {
	Times      []float64
	States     []cable.State
	StepsTaken int
}

// VoltageTrace extracts the recorded voltage of one compartment.
func (r *Result) VoltageTrace(comp int) []float64 {
	trace := make([]float64, 0, len(r.States))
	for _, s := range r.States {
		v := s.Voltages()
		if comp >= 0 && comp < len(v) {
			trace = append(trace, v[comp])
		}
	}
	return trace
}

// Run integrates the network for cfg.Steps steps of cfg.Dt, injecting
// the stimulus trace step by step. The initial state is recorded first;
// on error the partial result up to the failing step is returned along
// with the error.
func Run(ctx context.Context, net *Network, x0 cable.State, cfg Config, stim *cable.Stimulus) (*Result, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Times:  make([]float64, 0, cfg.Steps/every+1),
		States: make([]cable.State, 0, cfg.Steps/every+1),
	}

	state := x0.Clone()
	result.Times = append(result.Times, 0)
	result.States = append(result.States, state.Clone())

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, err := net.Step(state, cfg.Dt, stim.At(i))
		if err != nil {
			return result, err
		}

		state = next
		result.StepsTaken++

		if (i+1)%every == 0 {
			result.Times = append(result.Times, float64(i+1)*cfg.Dt)
			result.States = append(result.States, state.Clone())
		}
	}

	return result, nil
}
