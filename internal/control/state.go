package control

import (
	"fmt"
	"math"
	"strings"
)

// StateLen is the number of components in every raw observation.
const StateLen = 4

// StateVector is the normalized plant state for a single tick.
type StateVector struct {
	ActuatorPos        float64
	ActuatorVel        float64
	PendulumAngle      float64
	PendulumAngularVel float64
}

// Normalize builds a StateVector from raw in the fixed order actuator
// position, actuator velocity, pendulum angle, pendulum angular velocity.
// calibrationOffset is added to the angle.
func Normalize(raw []float64, calibrationOffset float64) (StateVector, error) {
	if len(raw) != StateLen {
		return StateVector{}, &ShapeError{Got: len(raw)}
	}
	return StateVector{
		ActuatorPos:        raw[0],
		ActuatorVel:        raw[1],
		PendulumAngle:      raw[2] + calibrationOffset,
		PendulumAngularVel: raw[3],
	}, nil
}

// Slice returns the components in observation order.
func (s StateVector) Slice() []float64 {
	return []float64{s.ActuatorPos, s.ActuatorVel, s.PendulumAngle, s.PendulumAngularVel}
}

func (s StateVector) IsFinite() bool {
	for _, v := range s.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AngleUnit is the unit a policy expects angles in.
type AngleUnit int

const (
	Radians AngleUnit = iota
	Degrees
)

func (u AngleUnit) String() string {
	if u == Degrees {
		return "deg"
	}
	return "rad"
}

func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(s) {
	case "", "rad", "radians":
		return Radians, nil
	case "deg", "degrees":
		return Degrees, nil
	}
	return Radians, fmt.Errorf("control: unknown angle unit %q", s)
}

// HalfTurn is π in radians or 180 in degrees.
func (u AngleUnit) HalfTurn() float64 {
	if u == Degrees {
		return 180
	}
	return math.Pi
}

// FromRadians converts an engine reading into this unit.
func (u AngleUnit) FromRadians(v float64) float64 {
	if u == Degrees {
		return v * 180 / math.Pi
	}
	return v
}

// Convention names where the zero of the policy's angle lies.
type Convention int

const (
	// Upright puts zero at the balanced, unstable equilibrium.
	Upright Convention = iota
	// Hanging puts zero at the stable, hanging-down equilibrium.
	Hanging
)

func (c Convention) String() string {
	if c == Hanging {
		return "hanging"
	}
	return "upright"
}

func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(s) {
	case "", "upright", "up":
		return Upright, nil
	case "hanging", "down":
		return Hanging, nil
	}
	return Upright, fmt.Errorf("control: unknown angle convention %q", s)
}

// Normalizer converts engine readings, which report angles in radians
// measured from upright, into the policy's unit and convention.
type Normalizer struct {
	Unit   AngleUnit
	Offset float64
	// Wrap folds the calibrated angle into (-half turn, +half turn].
	Wrap bool
}

// CalibrationFor returns the documented default calibration for a convention.
// Upright needs no offset. Hanging shifts by half a turn and wraps so that the
// hanging pendulum reads 0.
func CalibrationFor(c Convention, unit AngleUnit) Normalizer {
	if c == Hanging {
		return Normalizer{Unit: unit, Offset: unit.HalfTurn(), Wrap: true}
	}
	return Normalizer{Unit: unit}
}

func (n Normalizer) Normalize(raw []float64) (StateVector, error) {
	if len(raw) != StateLen {
		return StateVector{}, &ShapeError{Got: len(raw)}
	}
	converted := [StateLen]float64{
		raw[0],
		raw[1],
		n.Unit.FromRadians(raw[2]),
		n.Unit.FromRadians(raw[3]),
	}
	s, err := Normalize(converted[:], n.Offset)
	if err != nil {
		return StateVector{}, err
	}
	if n.Wrap {
		s.PendulumAngle = WrapAngle(s.PendulumAngle, n.Unit.HalfTurn())
	}
	return s, nil
}

// WrapAngle folds a into (-half, half].
func WrapAngle(a, half float64) float64 {
	full := 2 * half
	a = math.Mod(a+half, full)
	if a <= 0 {
		a += full
	}
	return a - half
}
