package engine

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/balancer/internal/dynamo"
)

// Reading is what the engine reports for the actuator and pendulum bodies at
// the start of a tick. Rotation is in radians, 0 = upright.
type Reading struct {
	Translation     float64
	LinearVelocity  float64
	Rotation        float64
	AngularVelocity float64
}

// Raw flattens a reading into observation order.
func (r Reading) Raw() []float64 {
	return []float64{r.Translation, r.LinearVelocity, r.Rotation, r.AngularVelocity}
}

// Faults injects malformed readings.
type Faults struct {
	// DropEvery makes every Nth read return one channel short. 0 disables.
	DropEvery int
}

type Options struct {
	Dt float64
	// Bodies whose linear and angular speeds both stay below SleepThreshold
	// for SleepAfter consecutive ticks are put to sleep. 0 disables sleeping.
	SleepThreshold float64
	SleepAfter     int
	Faults         Faults
}

func DefaultOptions() Options {
	return Options{
		Dt:             0.01,
		SleepThreshold: 1e-3,
		SleepAfter:     50,
	}
}

// World is a fixed-tick simulated physics engine around a single plant.
// It is not safe for concurrent use.
type World struct {
	sys   dynamo.System
	integ dynamo.Integrator
	opts  Options
	log   *zap.Logger

	x      dynamo.State
	u      dynamo.Control
	t      float64
	tick   int
	idle   int
	asleep bool
	reads  int
}

func New(sys dynamo.System, integ dynamo.Integrator, x0 dynamo.State, opts Options, log *zap.Logger) (*World, error) {
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, plant needs %d",
			dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	if sys.ControlDim() < 1 {
		return nil, fmt.Errorf("%w: plant has no actuator", dynamo.ErrDimensionMismatch)
	}
	if !(opts.Dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, opts.Dt)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		sys:   sys,
		integ: integ,
		opts:  opts,
		log:   log.Named("engine"),
		x:     x0.Clone(),
		u:     make(dynamo.Control, sys.ControlDim()),
	}, nil
}

func (w *World) Reading() Reading {
	return Reading{
		Translation:     w.x[0],
		LinearVelocity:  w.x[1],
		Rotation:        w.x[2],
		AngularVelocity: w.x[3],
	}
}

// ReadState returns the raw reading for the current tick.
func (w *World) ReadState() []float64 {
	w.reads++
	raw := w.Reading().Raw()
	if n := w.opts.Faults.DropEvery; n > 0 && w.reads%n == 0 {
		return raw[:len(raw)-1]
	}
	return raw
}

// KeepAwake wakes the bodies and resets their idle counter.
func (w *World) KeepAwake() {
	w.idle = 0
	if w.asleep {
		w.asleep = false
		w.log.Debug("bodies woken", zap.Int("tick", w.tick))
	}
}

// WriteCommand sets the actuator input until the next write. Sleeping bodies
// ignore it.
func (w *World) WriteCommand(u float64) {
	if w.asleep {
		return
	}
	w.u[0] = u
}

// Push adds dOmega to the pendulum's angular velocity and wakes the bodies.
func (w *World) Push(dOmega float64) {
	w.x[3] += dOmega
	w.KeepAwake()
}

func (w *World) Asleep() bool          { return w.asleep }
func (w *World) Time() float64         { return w.t }
func (w *World) Ticks() int            { return w.tick }
func (w *World) State() dynamo.State   { return w.x.Clone() }
func (w *World) Command() float64      { return w.u[0] }
func (w *World) System() dynamo.System { return w.sys }

// Step advances the world by one tick.
func (w *World) Step() error {
	defer func() {
		w.t += w.opts.Dt
		w.tick++
	}()

	if w.asleep {
		return nil
	}

	next := w.integ.Step(w.sys, w.x, w.u, w.t, w.opts.Dt)
	if !next.IsValid() {
		return &dynamo.SimulationError{Step: w.tick, Time: w.t, State: next, Wrapped: dynamo.ErrInvalidState}
	}
	w.x = next

	if w.opts.SleepAfter <= 0 {
		return nil
	}
	if math.Abs(w.x[1]) < w.opts.SleepThreshold && math.Abs(w.x[3]) < w.opts.SleepThreshold {
		w.idle++
	} else {
		w.idle = 0
	}
	if w.idle >= w.opts.SleepAfter {
		w.asleep = true
		w.x[1], w.x[3] = 0, 0
		w.u[0] = 0
		w.log.Debug("bodies asleep", zap.Int("tick", w.tick), zap.Float64("t", w.t))
	}
	return nil
}

// Run drives ticks steps, calling onTick at the start of each one. A failing
// onTick is logged and the tick still integrates; a cancelled ctx stops the
// run.
func (w *World) Run(ctx context.Context, ticks int, onTick func(tick int, t float64) error) error {
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if onTick != nil {
			if err := onTick(w.tick, w.t); err != nil {
				w.log.Debug("tick callback failed", zap.Int("tick", w.tick), zap.Error(err))
			}
		}

		if err := w.Step(); err != nil {
			return err
		}
	}
	return nil
}
