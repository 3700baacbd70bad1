package config

import "sort"

func ptr[T any](v T) *T { return &v }

var Presets = map[string]map[string]*Config{
	"platform": {
		// The first platform scene: bang-bang velocity within the whole half
		// turn, angles in degrees measured from upright.
		"bangbang": {
			Plant: "platform", Integrator: "rk4", Dt: 0.01, Duration: 10.0,
			InitState:   InitStateConfig{Theta: 0.1},
			Policy:      PolicyConfig{Kind: "bangbang", TargetAngle: 180, Gain: 50, Bound: 1000},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "deg"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
		"hanging": {
			Plant: "platform", Integrator: "rk4", Dt: 0.01, Duration: 10.0,
			InitState:   InitStateConfig{Theta: 3.0},
			Policy:      PolicyConfig{Kind: "bangbang", TargetAngle: 180, Gain: 50, Bound: 1000},
			Calibration: CalibrationConfig{Convention: "hanging", Unit: "deg"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
		"zoned": {
			Plant: "platform", Integrator: "rk4", Dt: 0.01, Duration: 10.0,
			InitState:   InitStateConfig{Pos: 3.0, Theta: 0.05},
			Policy:      PolicyConfig{Kind: "zoned", TargetAngle: 0, Gain: 0.01, Bound: 5, Deadband: 1.0},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "deg"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
	},
	"cartpole": {
		"balance": {
			Plant: "cartpole", Integrator: "rk4", Dt: 0.01, Duration: 30.0,
			InitState:   InitStateConfig{Theta: 0.1},
			Policy:      PolicyConfig{Kind: "lqr", Bound: 50},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "rad"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
		"recover": {
			Plant: "cartpole", Integrator: "rk4", Dt: 0.01, Duration: 30.0,
			InitState:   InitStateConfig{Pos: 1.0, Theta: 0.3},
			Policy:      PolicyConfig{Kind: "lqr", TargetPosition: 0, Bound: 50},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "rad"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
		"velocity": {
			Plant: "cartpole", Integrator: "rk4", Dt: 0.02, Duration: 10.0,
			InitState:   InitStateConfig{Theta: 0.05},
			Policy:      PolicyConfig{Kind: "velocity", Gain: 10, Bound: 10},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "rad"},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50},
		},
		"faulty": {
			Plant: "cartpole", Integrator: "rk4", Dt: 0.01, Duration: 10.0,
			InitState:   InitStateConfig{Theta: 0.1},
			Policy:      PolicyConfig{Kind: "lqr", Bound: 50},
			Calibration: CalibrationConfig{Convention: "upright", Unit: "rad", Offset: ptr(0.0), Wrap: ptr(false)},
			Engine:      EngineConfig{SleepThreshold: 1e-3, SleepAfter: 50, DropEvery: 10},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(plant, preset string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
