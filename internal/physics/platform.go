package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/balancer/internal/dynamo"
)

// Platform is a kinematic, velocity-driven platform carrying a pendulum on a
// rigid massless arm. u[0] is the commanded platform velocity; the platform
// reaches it with a first-order lag. The pendulum does not load the
// platform.
type Platform struct {
	ArmLength float64
	// Damping is the angular damping rate applied to the pendulum (1/s).
	Damping float64
	Gravity float64
	// Lag is the actuator time constant in seconds.
	Lag float64
}

func NewPlatform() *Platform {
	return &Platform{
		ArmLength: 0.5,
		Damping:   5.0,
		Gravity:   9.81,
		Lag:       0.05,
	}
}

func (p *Platform) StateDim() int {
	return 4
}

func (p *Platform) ControlDim() int {
	return 1
}

func (p *Platform) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel := x[1]
	theta := x[2]
	omega := x[3]

	target := 0.0
	if len(u) > 0 {
		target = u[0]
	}

	acc := (target - vel) / p.Lag
	alpha := (p.Gravity*math.Sin(theta)-acc*math.Cos(theta))/p.ArmLength - p.Damping*omega

	return dynamo.State{vel, acc, omega, alpha}
}

func (p *Platform) GetParams() map[string]float64 {
	return map[string]float64{
		"arm_length": p.ArmLength,
		"damping":    p.Damping,
		"gravity":    p.Gravity,
		"lag":        p.Lag,
	}
}

func (p *Platform) SetParam(name string, value float64) error {
	switch name {
	case "arm_length":
		if value <= 0 {
			return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, value)
		}
		p.ArmLength = value
	case "damping":
		if value < 0 {
			return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, value)
		}
		p.Damping = value
	case "gravity":
		p.Gravity = value
	case "lag":
		if value <= 0 {
			return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, value)
		}
		p.Lag = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	return nil
}
