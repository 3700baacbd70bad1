package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/balancer/internal/dynamo"
)

// Euler is the explicit first-order method. It is kept for comparing
// against RK4 at coarse time steps.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, dyn.Derive(x, u, t))
	return next
}
