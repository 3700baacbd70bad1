// Package dynamo provides the plant-side simulation primitives shared by the
// physics models, the integrators and the simulated engine.
//
//   - [State]: raw state vector of a simulated plant
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Configurable]: runtime parameter access for plants
//
// Nothing in this package knows about control policies; the controller only
// ever sees the raw reading the engine hands over each tick.
package dynamo
