package sim

import (
	"context"
	"sync"

	"github.com/mvelten/cabletree/internal/cable"
)

// Ensemble runs one network against a batch of stimuli in parallel.
// The network's morphology and conductances are read-only during
// stepping, so all runs share them; each run owns its own state vector.
type Ensemble struct {
	net *Network
}

func NewEnsemble(net *Network) *Ensemble {
	return &Ensemble{net: net}
}

func (e *Ensemble) Run(ctx context.Context, x0 cable.State, cfg Config, stims []*cable.Stimulus) ([]*Result, error) {
	results := make([]*Result, len(stims))
	errs := make([]error, len(stims))

	var wg sync.WaitGroup
	for i := range stims {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = Run(ctx, e.net, x0.Clone(), cfg, stims[idx])
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
