package control

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Kind selects one of the closed set of policies.
type Kind int

const (
	KindThreshold Kind = iota
	KindZoned
	KindVelocitySign
	KindLQR
)

var kindNames = map[Kind]string{
	KindThreshold:    "bangbang",
	KindZoned:        "zoned",
	KindVelocitySign: "velocity",
	KindLQR:          "lqr",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPolicy, s, Kinds())
}

// Kinds lists every policy name.
func Kinds() []string {
	names := make([]string, 0, len(kindNames))
	for _, n := range kindNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Policy maps a normalized state to a raw, unbounded command. Implementations
// must be pure.
type Policy interface {
	Kind() Kind
	Evaluate(s StateVector, cfg ControllerConfig) float64
}

func New(k Kind) (Policy, error) {
	switch k {
	case KindThreshold:
		return ThresholdBangBang{}, nil
	case KindZoned:
		return ZonedTarget{}, nil
	case KindVelocitySign:
		return VelocitySign{}, nil
	case KindLQR:
		return LQR{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, k)
}

// ThresholdBangBang pushes with |Gain| toward the side the pendulum leans to
// while the angle is inside the open band (-|TargetAngle|, |TargetAngle|).
// Exactly zero, the band edges and anything outside the band command 0.
//
// The zero at the band edges is a literal carry-over from the first working
// controller and may be a gap rather than an intended dead zone.
type ThresholdBangBang struct{}

func (ThresholdBangBang) Kind() Kind { return KindThreshold }

func (ThresholdBangBang) Evaluate(s StateVector, cfg ControllerConfig) float64 {
	band := math.Abs(cfg.TargetAngle)
	gain := math.Abs(cfg.Gain)
	theta := s.PendulumAngle

	switch {
	case -band < theta && theta < 0:
		return -gain
	case 0 < theta && theta < band:
		return gain
	}
	return 0
}

const (
	// FineScale multiplies Gain while balancing inside the deadband.
	FineScale = 100.0
	// CoarseScale multiplies Gain while driving toward the target position.
	CoarseScale = 1000.0
)

// ZonedTarget drives the actuator hard toward TargetPosition and, once
// within Deadband of it, switches to balancing the angle around TargetAngle.
type ZonedTarget struct{}

func (ZonedTarget) Kind() Kind { return KindZoned }

func (ZonedTarget) Evaluate(s StateVector, cfg ControllerConfig) float64 {
	posErr := s.ActuatorPos - cfg.TargetPosition

	if math.Abs(posErr) < cfg.deadband() {
		angleErr := s.PendulumAngle - cfg.TargetAngle
		switch {
		case angleErr < 0:
			return cfg.Gain * FineScale
		case angleErr > 0:
			return -cfg.Gain * FineScale
		}
		return 0
	}

	if posErr < 0 {
		return cfg.Gain * CoarseScale
	}
	return -cfg.Gain * CoarseScale
}

// VelocitySign pushes in the direction the pendulum is rotating.
type VelocitySign struct{}

func (VelocitySign) Kind() Kind { return KindVelocitySign }

func (VelocitySign) Evaluate(s StateVector, cfg ControllerConfig) float64 {
	if s.PendulumAngularVel > 0 {
		return math.Abs(cfg.Gain)
	}
	return -math.Abs(cfg.Gain)
}

// DiscreteAction maps a command onto a two-action environment:
// 1 pushes right, 0 pushes left.
func DiscreteAction(cmd float64) int {
	if cmd > 0 {
		return 1
	}
	return 0
}

// LQR is full-state feedback u = -K·(x - x*) with K = cfg.Gains and
// x* = [TargetPosition, 0, TargetAngle, 0].
type LQR struct{}

func (LQR) Kind() Kind { return KindLQR }

func (LQR) Evaluate(s StateVector, cfg ControllerConfig) float64 {
	k := mat.NewVecDense(StateLen, []float64{cfg.Gains[0], cfg.Gains[1], cfg.Gains[2], cfg.Gains[3]})
	e := mat.NewVecDense(StateLen, []float64{
		s.ActuatorPos - cfg.TargetPosition,
		s.ActuatorVel,
		s.PendulumAngle - cfg.TargetAngle,
		s.PendulumAngularVel,
	})
	return -mat.Dot(k, e)
}
