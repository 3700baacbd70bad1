package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func angle(theta float64) StateVector {
	return StateVector{PendulumAngle: theta}
}

func TestThresholdBangBang(t *testing.T) {
	cfg := ControllerConfig{TargetAngle: 180, Gain: 50, Bound: 1000}
	p := ThresholdBangBang{}

	tests := []struct {
		name     string
		theta    float64
		expected float64
	}{
		{"origin", 0.0, 0.0},
		{"negative zero", math.Copysign(0, -1), 0.0},
		{"just left", -0.1, -50},
		{"far left", -179.9, -50},
		{"just right", 0.1, 50},
		{"far right", 179.9, 50},
		{"left edge", -180, 0},
		{"right edge", 180, 0},
		{"beyond left", -270, 0},
		{"beyond right", 400, 0},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Evaluate(angle(tt.theta), cfg))
		})
	}
}

func TestThresholdBangBang_UsesMagnitudes(t *testing.T) {
	cfg := ControllerConfig{TargetAngle: -10, Gain: -5, Bound: 100}
	p := ThresholdBangBang{}

	assert.Equal(t, 5.0, p.Evaluate(angle(3), cfg))
	assert.Equal(t, -5.0, p.Evaluate(angle(-3), cfg))
	assert.Equal(t, 0.0, p.Evaluate(angle(10), cfg))
}

func TestThresholdBangBang_IgnoresPosition(t *testing.T) {
	cfg := ControllerConfig{TargetAngle: 10, Gain: 5, Bound: 100}
	p := ThresholdBangBang{}

	s := StateVector{ActuatorPos: 500, ActuatorVel: -3, PendulumAngle: 2}
	assert.Equal(t, 5.0, p.Evaluate(s, cfg))
}

func TestZonedTarget(t *testing.T) {
	cfg := ControllerConfig{TargetPosition: 0, TargetAngle: 0, Gain: 1, Bound: 2000, Deadband: 1.0}
	p := ZonedTarget{}

	tests := []struct {
		name     string
		state    StateVector
		expected float64
	}{
		{"far right drives left", StateVector{ActuatorPos: 2.0, PendulumAngle: -5}, -1000},
		{"far right ignores angle", StateVector{ActuatorPos: 2.0, PendulumAngle: 5}, -1000},
		{"far left drives right", StateVector{ActuatorPos: -2.0, PendulumAngle: 5}, 1000},
		{"deadband edge is coarse", StateVector{ActuatorPos: 1.0}, -1000},
		{"near with negative angle", StateVector{ActuatorPos: 0.5, PendulumAngle: -0.2}, 100},
		{"near with positive angle", StateVector{ActuatorPos: -0.5, PendulumAngle: 0.2}, -100},
		{"near at target angle", StateVector{ActuatorPos: 0.1, PendulumAngle: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Evaluate(tt.state, cfg))
		})
	}
}

func TestZonedTarget_Targets(t *testing.T) {
	cfg := ControllerConfig{TargetPosition: 5, TargetAngle: 180, Gain: 2, Bound: 5000, Deadband: 0.5}
	p := ZonedTarget{}

	assert.Equal(t, 2000.0, p.Evaluate(StateVector{ActuatorPos: 0}, cfg))
	assert.Equal(t, -2000.0, p.Evaluate(StateVector{ActuatorPos: 10}, cfg))
	assert.Equal(t, 200.0, p.Evaluate(StateVector{ActuatorPos: 5.2, PendulumAngle: 170}, cfg))
	assert.Equal(t, -200.0, p.Evaluate(StateVector{ActuatorPos: 4.8, PendulumAngle: 190}, cfg))
}

func TestZonedTarget_DefaultDeadband(t *testing.T) {
	cfg := ControllerConfig{Gain: 1, Bound: 2000}
	p := ZonedTarget{}

	assert.Equal(t, -100.0, p.Evaluate(StateVector{ActuatorPos: 0.9, PendulumAngle: 1}, cfg))
	assert.Equal(t, -1000.0, p.Evaluate(StateVector{ActuatorPos: 1.1, PendulumAngle: 1}, cfg))
}

func TestVelocitySign(t *testing.T) {
	cfg := ControllerConfig{Gain: -3, Bound: 10}
	p := VelocitySign{}

	assert.Equal(t, 3.0, p.Evaluate(StateVector{PendulumAngularVel: 0.01}, cfg))
	assert.Equal(t, -3.0, p.Evaluate(StateVector{PendulumAngularVel: 0}, cfg))
	assert.Equal(t, -3.0, p.Evaluate(StateVector{PendulumAngularVel: -2}, cfg))
}

func TestDiscreteAction(t *testing.T) {
	assert.Equal(t, 1, DiscreteAction(0.5))
	assert.Equal(t, 0, DiscreteAction(0))
	assert.Equal(t, 0, DiscreteAction(-0.5))
}

func TestLQR(t *testing.T) {
	cfg := ControllerConfig{Gains: [StateLen]float64{1, 2, 3, 4}, Bound: 100}
	p := LQR{}

	assert.Equal(t, 0.0, p.Evaluate(StateVector{}, cfg))
	assert.InDelta(t, -30.0, p.Evaluate(StateVector{1, 2, 3, 4}, cfg), 1e-12)

	cfg.TargetPosition = 1
	cfg.TargetAngle = 3
	assert.InDelta(t, -20.0, p.Evaluate(StateVector{1, 2, 3, 4}, cfg), 1e-12)
}

func TestLQR_CartPoleGainsPushUnderFall(t *testing.T) {
	cfg := ControllerConfig{Gains: DefaultCartPoleGains, Bound: 100}
	u := LQR{}.Evaluate(StateVector{PendulumAngle: 0.1}, cfg)
	assert.Greater(t, u, 0.0, "positive lean needs a positive push")
}

func TestParseKind(t *testing.T) {
	for _, name := range Kinds() {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())

		p, err := New(k)
		require.NoError(t, err)
		assert.Equal(t, k, p.Kind())
	}

	_, err := ParseKind("pid")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = New(Kind(42))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPoliciesArePure(t *testing.T) {
	cfg := ControllerConfig{TargetAngle: 30, Gain: 2, Bound: 10, Gains: DefaultCartPoleGains}
	s := StateVector{0.3, -0.1, 12, 0.4}

	for _, name := range Kinds() {
		k, _ := ParseKind(name)
		p, _ := New(k)
		first := p.Evaluate(s, cfg)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, p.Evaluate(s, cfg), name)
		}
	}
	assert.Equal(t, StateVector{0.3, -0.1, 12, 0.4}, s)
}
