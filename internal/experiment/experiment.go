package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/control"
	"github.com/san-kum/balancer/internal/dynamo"
	"github.com/san-kum/balancer/internal/engine"
	"github.com/san-kum/balancer/internal/loop"
)

var ErrNotSetup = errors.New("experiment not setup")

// Experiment wires one plant, its engine and a control loop from a Config.
type Experiment struct {
	cfg    *config.Config
	log    *zap.Logger
	world  *engine.World
	ctrl   *control.Controller
	driver *loop.Driver
	record bool
}

func New(cfg *config.Config, log *zap.Logger) *Experiment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{
		cfg:    cfg,
		log:    log.Named("experiment"),
		record: true,
	}
}

// SetRecording chooses whether Run keeps every tick. It takes effect at the
// next Setup.
func (e *Experiment) SetRecording(on bool) { e.record = on }

// Setup resolves the plant and integrator from reg and builds the engine,
// controller and driver.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sys, err := reg.GetPlant(e.cfg.Plant)
	if err != nil {
		return err
	}
	if err := applyParams(sys, e.cfg.PlantParams); err != nil {
		return err
	}
	integ, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	opts := engine.Options{
		Dt:             e.cfg.Dt,
		SleepThreshold: e.cfg.Engine.SleepThreshold,
		SleepAfter:     e.cfg.Engine.SleepAfter,
		Faults:         engine.Faults{DropEvery: e.cfg.Engine.DropEvery},
	}
	world, err := engine.New(sys, integ, dynamo.State(e.cfg.GetInitState()), opts, e.log)
	if err != nil {
		return err
	}

	ctrl, err := e.cfg.Controller()
	if err != nil {
		return err
	}

	driver := loop.New(ctrl, world, e.log)
	for _, m := range reg.DefaultMetrics(e.cfg) {
		driver.AddMetric(m)
	}
	if e.record {
		driver.EnableRecording()
	}

	e.world, e.ctrl, e.driver = world, ctrl, driver
	return nil
}

func applyParams(sys dynamo.System, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	c, ok := sys.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%w: plant takes no parameters", dynamo.ErrUnknownParameter)
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, params[name]); err != nil {
			return fmt.Errorf("plant param %s: %w", name, err)
		}
	}
	return nil
}

// Ticks is the number of fixed steps that cover the configured duration.
func (e *Experiment) Ticks() int {
	return int(math.Round(e.cfg.Duration / e.cfg.Dt))
}

// Run drives the engine for the configured duration. A run cut short by a
// diverging plant or a cancelled ctx still returns what was recorded.
func (e *Experiment) Run(ctx context.Context) (*loop.Result, error) {
	if e.driver == nil {
		return nil, ErrNotSetup
	}

	e.log.Info("run started",
		zap.String("plant", e.cfg.Plant),
		zap.String("policy", e.cfg.Policy.Kind),
		zap.Int("ticks", e.Ticks()))

	err := e.world.Run(ctx, e.Ticks(), e.driver.OnTick)
	res := e.driver.Result()
	if err != nil {
		return res, err
	}

	e.log.Info("run finished",
		zap.Int("ticks", res.Ticks),
		zap.Int("skipped", res.Skipped),
		zap.Int("saturated", res.Saturated))
	return res, nil
}

func (e *Experiment) Config() *config.Config          { return e.cfg }
func (e *Experiment) World() *engine.World            { return e.world }
func (e *Experiment) Driver() *loop.Driver            { return e.driver }
func (e *Experiment) Controller() *control.Controller { return e.ctrl }
