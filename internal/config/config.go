package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt      = 0.025
	DefaultSteps   = 4000
	DefaultVRest   = -70.0
	DefaultNComp   = 4
	DefaultAxialR  = 5000.0
	DefaultStimAmp = 0.1
)

type Config struct {
	Scenario    string     `yaml:"scenario"`
	SWCFile     string     `yaml:"swc_file"`
	Dt          float64    `yaml:"dt"`
	Steps       int        `yaml:"steps"`
	RecordEvery int        `yaml:"record_every"`
	VRest       float64    `yaml:"v_rest"`
	MaxKids     int        `yaml:"max_kids"`
	NComp       int        `yaml:"ncomp"`
	AxialR      float64    `yaml:"axial_resistivity"`
	Stim        StimConfig `yaml:"stim"`
}

// StimConfig describes one injected current pulse. Times are in ms,
// amplitude in nA.
type StimConfig struct {
	Comp      int     `yaml:"comp"`
	Amplitude float64 `yaml:"amplitude"`
	Start     float64 `yaml:"start"`
	Duration  float64 `yaml:"duration"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:    "hh-soma",
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		RecordEvery: 1,
		VRest:       DefaultVRest,
		NComp:       DefaultNComp,
		AxialR:      DefaultAxialR,
		Stim: StimConfig{
			Comp:      0,
			Amplitude: DefaultStimAmp,
			Start:     1.0,
			Duration:  2.0,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
