package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/balancer/internal/control"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultTheta    = 0.1
	DefaultGain     = 50.0
	DefaultBound    = 1000.0
	DefaultBand     = 180.0
)

type Config struct {
	Plant       string             `yaml:"plant"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Seed        int64              `yaml:"seed"`
	InitState   InitStateConfig    `yaml:"init_state"`
	Policy      PolicyConfig       `yaml:"policy"`
	Calibration CalibrationConfig  `yaml:"calibration"`
	Engine      EngineConfig       `yaml:"engine"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
}

type InitStateConfig struct {
	Pos   float64 `yaml:"pos"`
	Vel   float64 `yaml:"vel"`
	Theta float64 `yaml:"theta"`
	Omega float64 `yaml:"omega"`
}

type PolicyConfig struct {
	Kind           string    `yaml:"kind"`
	TargetPosition float64   `yaml:"target_position"`
	TargetAngle    float64   `yaml:"target_angle"`
	Gain           float64   `yaml:"gain"`
	Bound          float64   `yaml:"bound"`
	Deadband       float64   `yaml:"deadband"`
	Gains          []float64 `yaml:"gains,omitempty"`
}

type CalibrationConfig struct {
	// Convention is "upright" or "hanging" and picks the default offset.
	Convention string `yaml:"convention"`
	Unit       string `yaml:"unit"`
	// Offset, when set, replaces the convention's default offset.
	Offset *float64 `yaml:"offset,omitempty"`
	Wrap   *bool    `yaml:"wrap,omitempty"`
}

type EngineConfig struct {
	SleepThreshold float64 `yaml:"sleep_threshold"`
	SleepAfter     int     `yaml:"sleep_after"`
	DropEvery      int     `yaml:"drop_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      "platform",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		InitState: InitStateConfig{
			Theta: DefaultTheta,
		},
		Policy: PolicyConfig{
			Kind:        "bangbang",
			TargetAngle: DefaultBand,
			Gain:        DefaultGain,
			Bound:       DefaultBound,
			Deadband:    control.DefaultDeadband,
		},
		Calibration: CalibrationConfig{
			Convention: "upright",
			Unit:       "deg",
		},
		Engine: EngineConfig{
			SleepThreshold: 1e-3,
			SleepAfter:     50,
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Clone returns a deep copy so presets are never mutated.
func (c *Config) Clone() *Config {
	out := *c
	if c.Policy.Gains != nil {
		out.Policy.Gains = append([]float64(nil), c.Policy.Gains...)
	}
	if c.PlantParams != nil {
		out.PlantParams = make(map[string]float64, len(c.PlantParams))
		for k, v := range c.PlantParams {
			out.PlantParams[k] = v
		}
	}
	if c.Calibration.Offset != nil {
		v := *c.Calibration.Offset
		out.Calibration.Offset = &v
	}
	if c.Calibration.Wrap != nil {
		v := *c.Calibration.Wrap
		out.Calibration.Wrap = &v
	}
	return &out
}

func (c *Config) GetInitState() []float64 {
	return []float64{c.InitState.Pos, c.InitState.Vel, c.InitState.Theta, c.InitState.Omega}
}

// Validate fails fast on anything that would otherwise surface mid-run.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if _, err := control.ParseKind(c.Policy.Kind); err != nil {
		return err
	}
	if _, err := c.Normalizer(); err != nil {
		return err
	}
	cc, err := c.ControllerConfig()
	if err != nil {
		return err
	}
	return cc.Validate()
}

func (c *Config) Kind() (control.Kind, error) {
	return control.ParseKind(c.Policy.Kind)
}

func (c *Config) ControllerConfig() (control.ControllerConfig, error) {
	cc := control.ControllerConfig{
		TargetPosition: c.Policy.TargetPosition,
		TargetAngle:    c.Policy.TargetAngle,
		Gain:           c.Policy.Gain,
		Bound:          c.Policy.Bound,
		Deadband:       c.Policy.Deadband,
		Gains:          control.DefaultCartPoleGains,
	}
	if len(c.Policy.Gains) > 0 {
		if len(c.Policy.Gains) != control.StateLen {
			return cc, fmt.Errorf("policy gains need %d values, got %d", control.StateLen, len(c.Policy.Gains))
		}
		copy(cc.Gains[:], c.Policy.Gains)
	}
	return cc, nil
}

func (c *Config) Normalizer() (control.Normalizer, error) {
	conv, err := control.ParseConvention(c.Calibration.Convention)
	if err != nil {
		return control.Normalizer{}, err
	}
	unit, err := control.ParseAngleUnit(c.Calibration.Unit)
	if err != nil {
		return control.Normalizer{}, err
	}
	n := control.CalibrationFor(conv, unit)
	if c.Calibration.Offset != nil {
		n.Offset = *c.Calibration.Offset
	}
	if c.Calibration.Wrap != nil {
		n.Wrap = *c.Calibration.Wrap
	}
	return n, nil
}

// Controller builds the validated controller this config describes.
func (c *Config) Controller() (*control.Controller, error) {
	kind, err := c.Kind()
	if err != nil {
		return nil, err
	}
	cc, err := c.ControllerConfig()
	if err != nil {
		return nil, err
	}
	norm, err := c.Normalizer()
	if err != nil {
		return nil, err
	}
	return control.NewController(kind, cc, norm)
}

// Set assigns a tunable parameter by name.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "gain":
		c.Policy.Gain = value
	case "bound":
		c.Policy.Bound = value
	case "target_angle":
		c.Policy.TargetAngle = value
	case "target_position":
		c.Policy.TargetPosition = value
	case "deadband":
		c.Policy.Deadband = value
	case "offset":
		v := value
		c.Calibration.Offset = &v
	case "dt":
		c.Dt = value
	default:
		if c.PlantParams == nil {
			c.PlantParams = make(map[string]float64)
		}
		c.PlantParams[name] = value
	}
	return nil
}
