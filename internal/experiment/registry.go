package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/control"
	"github.com/san-kum/balancer/internal/dynamo"
	"github.com/san-kum/balancer/internal/integrators"
	"github.com/san-kum/balancer/internal/loop"
	"github.com/san-kum/balancer/internal/metrics"
	"github.com/san-kum/balancer/internal/physics"
)

// StabilityRadians is the lean, in radians, the stability metric tolerates.
const StabilityRadians = 0.2

type Registry struct {
	plants      map[string]func() dynamo.System
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func() dynamo.System),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.plants["cartpole"] = func() dynamo.System { return physics.NewCartPole() }
	r.plants["platform"] = func() dynamo.System { return physics.NewPlatform() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetPlant(name string) (dynamo.System, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListPlants() []string      { return sortedKeys(r.plants) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

// DefaultMetrics returns fresh metrics for a run of cfg. Angle thresholds are
// expressed in the unit the controller observes.
func (r *Registry) DefaultMetrics(cfg *config.Config) []loop.Metric {
	unit, err := control.ParseAngleUnit(cfg.Calibration.Unit)
	if err != nil {
		unit = control.Radians
	}
	return []loop.Metric{
		metrics.NewStability(unit.FromRadians(StabilityRadians)),
		metrics.NewControlEffort(),
		metrics.NewSaturation(),
		metrics.NewTracking(cfg.Policy.TargetPosition),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
