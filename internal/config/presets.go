package config

// Presets are ready-made configurations per scenario.
var Presets = map[string]map[string]*Config{
	"passive-cable": {
		"decay": {
			Scenario: "passive-cable", Dt: 0.025, Steps: 2000, NComp: 8,
			VRest: -70.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 0, Amplitude: 0.05, Start: 1.0, Duration: 5.0},
		},
		"long-pulse": {
			Scenario: "passive-cable", Dt: 0.025, Steps: 8000, NComp: 16,
			VRest: -70.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 0, Amplitude: 0.02, Start: 5.0, Duration: 100.0},
		},
	},
	"hh-soma": {
		"spike": {
			Scenario: "hh-soma", Dt: 0.025, Steps: 2000,
			VRest: -65.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 0, Amplitude: 0.2, Start: 1.0, Duration: 2.0},
		},
		"train": {
			Scenario: "hh-soma", Dt: 0.025, Steps: 8000,
			VRest: -65.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 0, Amplitude: 0.15, Start: 5.0, Duration: 150.0},
		},
	},
	"branched": {
		"leaf-inject": {
			Scenario: "branched", Dt: 0.025, Steps: 4000, NComp: 4,
			VRest: -65.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 7, Amplitude: 0.1, Start: 2.0, Duration: 10.0},
		},
	},
	"two-cell": {
		"relay": {
			Scenario: "two-cell", Dt: 0.025, Steps: 6000, NComp: 4,
			VRest: -65.0, AxialR: DefaultAxialR,
			Stim: StimConfig{Comp: 0, Amplitude: 0.2, Start: 2.0, Duration: 50.0},
		},
	},
}

// GetPreset returns the named preset for a scenario, or nil.
func GetPreset(scenario, name string) *Config {
	group, ok := Presets[scenario]
	if !ok {
		return nil
	}
	return group[name]
}

// ListPresets returns the preset names for a scenario.
func ListPresets(scenario string) []string {
	group, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}
