package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/experiment"
	"github.com/san-kum/balancer/internal/storage"
)

const scenarioYAML = `
name: bound sweep
description: shrink the actuator bound until the pole falls
steps:
  - name: wide
    plant: cartpole
    preset: balance
    duration: 1
  - name: narrow
    plant: cartpole
    preset: balance
    duration: 1
    theta: 0.2
    set:
      bound: 2
      pole_length: 0.8
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "bound sweep" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	cfg, err := sc.Steps[1].Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Policy.Bound != 2 || cfg.PlantParams["pole_length"] != 0.8 || cfg.InitState.Theta != 0.2 {
		t.Errorf("step overrides not applied: %+v", cfg)
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("expected ErrEmptyScenario, got %v", err)
	}
}

func TestStepConfig_UnknownPreset(t *testing.T) {
	step := ScenarioStep{Plant: "cartpole", Preset: "juggle"}
	if _, err := step.Config(); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), st, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Result.Saturated != 0 {
		t.Errorf("wide bound should not saturate, got %d", results[0].Result.Saturated)
	}
	if results[1].Result.Saturated == 0 {
		t.Error("narrow bound should saturate")
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(runs))
	}
}

func TestRunScenario_StopsOnError(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Plant: "cartpole", Preset: "balance", Duration: 0.1},
		{Plant: "cartpole", Preset: "balance", Set: map[string]float64{"bound": -1}},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, nil)
	if err == nil {
		t.Fatal("expected error from second step")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step's result, got %d", len(results))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	base := config.GetPreset("cartpole", "balance")
	base.Duration = 2
	base.Seed = 7

	mc := &MonteCarloConfig{
		Base:         base,
		Trials:       8,
		AngleSpread:  0.05,
		OmegaSpread:  0.05,
		MinStability: 0.95,
		Workers:      4,
	}

	results, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("expected 8 trials, got %d", len(results))
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 8 || unstable != 0 {
		t.Errorf("small perturbations should all hold, got %d/%d", stable, unstable)
	}

	again, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range results {
		if results[i].Theta != again[i].Theta || results[i].Omega != again[i].Omega {
			t.Fatalf("trial %d not reproducible for the same seed", i)
		}
	}
}

func TestRunMonteCarlo_NoTrials(t *testing.T) {
	mc := &MonteCarloConfig{Base: config.DefaultConfig()}
	if _, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil); err == nil {
		t.Error("expected error for zero trials")
	}
}
