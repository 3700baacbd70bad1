package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/balancer/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta method. The stage buffers
// are reused between steps, so one RK4 must not be shared across
// goroutines.
type RK4 struct {
	k     [4]dynamo.State
	probe dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.probe) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.probe = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	// Derive may return a buffer it owns, so each stage is copied out.
	copy(r.k[0], dyn.Derive(x, u, t))
	floats.AddScaledTo(r.probe, x, half, r.k[0])
	copy(r.k[1], dyn.Derive(r.probe, u, t+half))
	floats.AddScaledTo(r.probe, x, half, r.k[1])
	copy(r.k[2], dyn.Derive(r.probe, u, t+half))
	floats.AddScaledTo(r.probe, x, dt, r.k[2])
	copy(r.k[3], dyn.Derive(r.probe, u, t+dt))

	next := x.Clone()
	floats.AddScaled(next, dt/6, r.k[0])
	floats.AddScaled(next, dt/3, r.k[1])
	floats.AddScaled(next, dt/3, r.k[2])
	floats.AddScaled(next, dt/6, r.k[3])
	return next
}
