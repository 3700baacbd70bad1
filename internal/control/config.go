package control

import (
	"fmt"
	"math"
)

// DefaultDeadband is the ZonedTarget position deadband used when none is set.
const DefaultDeadband = 1.0

// DefaultCartPoleGains is a full-state feedback gain vector that stabilizes
// the upright cart-pole plant with angles in radians.
var DefaultCartPoleGains = [StateLen]float64{-1.0, -2.0, -40.0, -10.0}

// ControllerConfig holds the parameters a policy evaluates against. It is
// built once and never mutated while a loop is running.
type ControllerConfig struct {
	TargetPosition float64
	TargetAngle    float64
	Gain           float64
	Bound          float64
	Deadband       float64
	Gains          [StateLen]float64
}

func (c ControllerConfig) Validate() error {
	if !(c.Bound > 0) || math.IsInf(c.Bound, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidActuatorBound, c.Bound)
	}
	if c.Deadband < 0 || math.IsNaN(c.Deadband) {
		return fmt.Errorf("%w: got %v", ErrInvalidDeadband, c.Deadband)
	}
	return nil
}

func (c ControllerConfig) deadband() float64 {
	if c.Deadband == 0 {
		return DefaultDeadband
	}
	return c.Deadband
}
