package dynamo

import "math"

// State is a plant state vector. Both plants use [x, ẋ, θ, ω] with θ in
// radians and 0 upright.
type State []float64

func (s State) Clone() State {
	return append(State(nil), s...)
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the actuator input; both plants take a single value.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances x by dt holding u constant. It must not modify x.
type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Configurable plants expose named physical parameters for presets and tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
