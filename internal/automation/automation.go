// Package automation runs scripted batches of experiments: YAML scenarios
// whose steps are stored like single runs, and Monte Carlo robustness trials
// over perturbed starting angles.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/experiment"
	"github.com/san-kum/balancer/internal/loop"
	"github.com/san-kum/balancer/internal/storage"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of experiments.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the default config) and applies Set
// through config.Set, so policy and plant parameters share one namespace.
type ScenarioStep struct {
	Name     string             `yaml:"name"`
	Plant    string             `yaml:"plant"`
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Theta    *float64           `yaml:"theta,omitempty"`
	Set      map[string]float64 `yaml:"set"`
}

type StepResult struct {
	Name   string
	RunID  string
	Result *loop.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	return &scenario, nil
}

// Config resolves the step into a validated config.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Plant != "" {
		cfg.Plant = s.Plant
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Plant, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", cfg.Plant, s.Preset)
		}
		cfg = p
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Theta != nil {
		cfg.InitState.Theta = *s.Theta
	}
	for k, v := range s.Set {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes every step in order and stores each run when st is
// not nil. It stops at the first failing step.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, st *storage.Store, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scenario")

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		log.Info("step started", zap.String("scenario", scenario.Name), zap.String("step", name))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		exp := experiment.New(cfg, log)
		exp.SetRecording(st != nil)
		if err := exp.Setup(reg); err != nil {
			return results, fmt.Errorf("step %d (%s) setup: %w", i+1, name, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}

		sr := StepResult{Name: name, Result: result}
		if st != nil {
			if sr.RunID, err = st.Save(storage.NewMetadata(cfg), result); err != nil {
				return results, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
			}
		}
		results = append(results, sr)
	}
	return results, nil
}
