package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/balancer/internal/control"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Plant != "platform" {
		t.Errorf("expected plant platform, got %s", cfg.Plant)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate_Bound(t *testing.T) {
	for _, bound := range []float64{0, -10} {
		cfg := DefaultConfig()
		cfg.Policy.Bound = bound
		if err := cfg.Validate(); !errors.Is(err, control.ErrInvalidActuatorBound) {
			t.Errorf("bound %v: expected ErrInvalidActuatorBound, got %v", bound, err)
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"unknown policy", func(c *Config) { c.Policy.Kind = "pid" }},
		{"unknown unit", func(c *Config) { c.Calibration.Unit = "grad" }},
		{"unknown convention", func(c *Config) { c.Calibration.Convention = "sideways" }},
		{"short gains", func(c *Config) { c.Policy.Gains = []float64{1, 2} }},
		{"negative deadband", func(c *Config) { c.Policy.Deadband = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNormalizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calibration = CalibrationConfig{Convention: "hanging", Unit: "deg"}

	n, err := cfg.Normalizer()
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	if n.Unit != control.Degrees || n.Offset != 180 || !n.Wrap {
		t.Errorf("unexpected hanging calibration %+v", n)
	}

	offset := -45.0
	wrap := false
	cfg.Calibration.Offset = &offset
	cfg.Calibration.Wrap = &wrap
	n, err = cfg.Normalizer()
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	if n.Offset != -45 || n.Wrap {
		t.Errorf("explicit offset should win, got %+v", n)
	}
}

func TestControllerConfig_Gains(t *testing.T) {
	cfg := DefaultConfig()
	cc, err := cfg.ControllerConfig()
	if err != nil {
		t.Fatalf("controller config: %v", err)
	}
	if cc.Gains != control.DefaultCartPoleGains {
		t.Errorf("expected default gains, got %v", cc.Gains)
	}

	cfg.Policy.Gains = []float64{1, 2, 3, 4}
	cc, err = cfg.ControllerConfig()
	if err != nil {
		t.Fatalf("controller config: %v", err)
	}
	if cc.Gains != [control.StateLen]float64{1, 2, 3, 4} {
		t.Errorf("expected custom gains, got %v", cc.Gains)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("cartpole", "faulty")
	cfg.PlantParams = map[string]float64{"pole_length": 0.5}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Plant != "cartpole" || loaded.Policy.Kind != "lqr" {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
	if loaded.Engine.DropEvery != 10 {
		t.Errorf("expected drop_every 10, got %d", loaded.Engine.DropEvery)
	}
	if loaded.Calibration.Offset == nil || *loaded.Calibration.Offset != 0 {
		t.Error("explicit offset lost in round trip")
	}
	if loaded.PlantParams["pole_length"] != 0.5 {
		t.Errorf("plant params lost: %v", loaded.PlantParams)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("platform", "bangbang")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Policy.TargetAngle != 180 || cfg.Policy.Gain != 50 {
		t.Errorf("unexpected bang-bang preset %+v", cfg.Policy)
	}

	cfg.Policy.Gain = 1
	if Presets["platform"]["bangbang"].Policy.Gain != 50 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("platform", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "balance") != nil {
		t.Error("expected nil for nonexistent plant")
	}
}

func TestPresetsValidate(t *testing.T) {
	for plant := range Presets {
		for _, name := range ListPresets(plant) {
			cfg := GetPreset(plant, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s invalid: %v", plant, name, err)
			}
			if _, err := cfg.Controller(); err != nil {
				t.Errorf("preset %s/%s controller: %v", plant, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("cartpole")
	if len(presets) != 4 || presets[0] != "balance" {
		t.Errorf("unexpected cartpole presets %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent plant")
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	for name, v := range map[string]float64{"gain": 7, "bound": 9, "offset": -45, "lag": 0.2} {
		if err := cfg.Set(name, v); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	if cfg.Policy.Gain != 7 || cfg.Policy.Bound != 9 {
		t.Errorf("policy params not set: %+v", cfg.Policy)
	}
	if cfg.Calibration.Offset == nil || *cfg.Calibration.Offset != -45 {
		t.Error("offset not set")
	}
	if cfg.PlantParams["lag"] != 0.2 {
		t.Error("unknown names should go to plant params")
	}
}
