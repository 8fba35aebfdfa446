package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvelten/cabletree/internal/config"
	"github.com/mvelten/cabletree/internal/sim"
)

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	names := r.List()
	want := []string{"branched", "hh-soma", "passive-cable", "swc", "two-cell"}
	if len(names) != len(want) {
		t.Fatalf("scenario list %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("scenario %d = %q, want %q", i, names[i], n)
		}
	}
	if r.Describe("hh-soma") == "" {
		t.Error("hh-soma should carry a description")
	}
}

func TestRegistryUnknownScenario(t *testing.T) {
	if _, err := NewRegistry().Get("nope", config.DefaultConfig()); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestBuildersProduceRunnableScenarios(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"passive-cable", "hh-soma", "branched", "two-cell"} {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Scenario = name
			sc, err := r.Get(name, cfg)
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if sc.Name != name || sc.Net == nil || sc.X0 == nil || sc.Stim == nil {
				t.Fatalf("scenario incomplete: %+v", sc)
			}
			if len(sc.X0.Voltages()) != sc.Net.NumComps() {
				t.Errorf("initial state has %d voltages for %d compartments",
					len(sc.X0.Voltages()), sc.Net.NumComps())
			}

			runCfg := sim.Config{Dt: cfg.Dt, Steps: 20, RecordEvery: 1}
			result, err := sim.Run(context.Background(), sc.Net, sc.X0, runCfg, sc.Stim)
			if err != nil {
				t.Fatalf("short run failed: %v", err)
			}
			if !result.States[len(result.States)-1].IsValid() {
				t.Error("state went non-finite")
			}
		})
	}
}

func TestPresetsNameKnownScenarios(t *testing.T) {
	r := NewRegistry()
	for scenario, group := range config.Presets {
		for name, cfg := range group {
			if _, err := r.Get(scenario, cfg); err != nil {
				t.Errorf("preset %s/%s does not build: %v", scenario, name, err)
			}
		}
	}
}

func TestSWCScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell.swc")
	swc := `1 1 0 0 0 1.0 -1
2 3 10 0 0 1.0 1
3 3 20 0 0 0.8 2
4 3 30 10 0 0.5 3
5 3 30 -10 0 0.4 3
`
	if err := os.WriteFile(path, []byte(swc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Scenario = "swc"
	cfg.SWCFile = path
	cfg.NComp = 2

	sc, err := NewRegistry().Get("swc", cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	// three branches of two compartments each
	if sc.Net.NumComps() != 6 {
		t.Errorf("expected 6 compartments, got %d", sc.Net.NumComps())
	}

	runCfg := sim.Config{Dt: cfg.Dt, Steps: 10, RecordEvery: 1}
	if _, err := sim.Run(context.Background(), sc.Net, sc.X0, runCfg, sc.Stim); err != nil {
		t.Fatalf("short run failed: %v", err)
	}
}

func TestSWCScenarioRequiresFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "swc"
	cfg.SWCFile = ""
	if _, err := NewRegistry().Get("swc", cfg); err == nil {
		t.Error("expected error without an swc_file")
	}
}
