package control

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	s, err := Normalize([]float64{1, 2, 3, 4}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, StateVector{ActuatorPos: 1, ActuatorVel: 2, PendulumAngle: 3.5, PendulumAngularVel: 4}, s)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := []float64{1, 2, 3, 4}
	_, err := Normalize(raw, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, raw)
}

func TestNormalize_Shape(t *testing.T) {
	for n := 0; n <= 8; n++ {
		raw := make([]float64, n)
		_, err := Normalize(raw, 0)
		if n == StateLen {
			assert.NoError(t, err, "len %d", n)
			continue
		}
		require.Error(t, err, "len %d", n)
		assert.ErrorIs(t, err, ErrInvalidObservationShape)

		var shapeErr *ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, n, shapeErr.Got)
	}
}

func TestNormalize_NilSlice(t *testing.T) {
	_, err := Normalize(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidObservationShape)
}

func TestNormalizer_Degrees(t *testing.T) {
	n := Normalizer{Unit: Degrees, Offset: -45}
	s, err := n.Normalize([]float64{0.5, -0.5, math.Pi / 2, math.Pi})
	require.NoError(t, err)

	assert.Equal(t, 0.5, s.ActuatorPos)
	assert.Equal(t, -0.5, s.ActuatorVel)
	assert.InDelta(t, 45.0, s.PendulumAngle, 1e-9)
	assert.InDelta(t, 180.0, s.PendulumAngularVel, 1e-9)
}

func TestNormalizer_Shape(t *testing.T) {
	n := CalibrationFor(Hanging, Degrees)
	_, err := n.Normalize([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidObservationShape)
	_, err = n.Normalize([]float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrInvalidObservationShape)
}

func TestCalibrationFor(t *testing.T) {
	tests := []struct {
		name     string
		conv     Convention
		unit     AngleUnit
		engine   float64
		expected float64
	}{
		{"upright rad at top", Upright, Radians, 0.0, 0.0},
		{"upright deg tilted", Upright, Degrees, 0.1, 0.1 * 180 / math.Pi},
		{"hanging rad at bottom", Hanging, Radians, math.Pi, 0.0},
		{"hanging rad at bottom negative", Hanging, Radians, -math.Pi, 0.0},
		{"hanging deg at top", Hanging, Degrees, 0.0, 180.0},
		{"hanging deg just past bottom", Hanging, Degrees, math.Pi + 0.1, 0.1 * 180 / math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := CalibrationFor(tt.conv, tt.unit)
			s, err := n.Normalize([]float64{0, 0, tt.engine, 0})
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, s.PendulumAngle, 1e-9)
		})
	}
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, half, expected float64
	}{
		{0, 180, 0},
		{180, 180, 180},
		{-180, 180, 180},
		{190, 180, -170},
		{-190, 180, 170},
		{540, 180, 180},
		{3 * math.Pi / 2, math.Pi, -math.Pi / 2},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, WrapAngle(tt.in, tt.half), 1e-9, "WrapAngle(%v, %v)", tt.in, tt.half)
	}
}

func TestParseAngleUnit(t *testing.T) {
	u, err := ParseAngleUnit("deg")
	require.NoError(t, err)
	assert.Equal(t, Degrees, u)

	u, err = ParseAngleUnit("")
	require.NoError(t, err)
	assert.Equal(t, Radians, u)

	_, err = ParseAngleUnit("grad")
	assert.Error(t, err)
}

func TestParseConvention(t *testing.T) {
	c, err := ParseConvention("hanging")
	require.NoError(t, err)
	assert.Equal(t, Hanging, c)

	_, err = ParseConvention("sideways")
	assert.Error(t, err)
}

func TestStateVector_IsFinite(t *testing.T) {
	assert.True(t, StateVector{1, 2, 3, 4}.IsFinite())
	assert.False(t, StateVector{1, math.NaN(), 3, 4}.IsFinite())
	assert.False(t, StateVector{1, 2, math.Inf(-1), 4}.IsFinite())
}
